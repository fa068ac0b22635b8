// internal/app/store/conversations/conversationstore_test.go
package conversationstore

import (
	"errors"
	"testing"
	"time"

	"github.com/teamforge/teamforge/internal/domain/models"
	"github.com/teamforge/teamforge/internal/testutil"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAppendMessageCreatesConversationOnFirstUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	project := primitive.NewObjectID()
	sender := primitive.NewObjectID()

	if _, err := store.GetByProject(ctx, project); !errors.Is(err, ErrNotFound) {
		t.Fatalf("before first message: got %v, want ErrNotFound", err)
	}

	if err := store.AppendMessage(ctx, project, models.Message{
		Sender: sender, Content: "hi",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	conv, err := store.GetByProject(ctx, project)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv.Project != project {
		t.Errorf("project: got %s, want %s", conv.Project.Hex(), project.Hex())
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Content != "hi" {
		t.Fatalf("messages: got %+v", conv.Messages)
	}
	if conv.Messages[0].Timestamp.IsZero() {
		t.Error("append must stamp a timestamp when the client sends none")
	}
	if conv.ID.IsZero() {
		t.Error("upsert must assign an id")
	}
}

func TestAppendMessagePreservesOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	project := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	contents := []string{"one", "two", "three"}
	for _, c := range contents {
		if err := store.AppendMessage(ctx, project, models.Message{
			Sender: sender, Content: c,
		}); err != nil {
			t.Fatalf("append %s: %v", c, err)
		}
	}

	conv, err := store.GetByProject(ctx, project)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conv.Messages) != len(contents) {
		t.Fatalf("len: got %d, want %d", len(conv.Messages), len(contents))
	}
	for i, c := range contents {
		if conv.Messages[i].Content != c {
			t.Errorf("messages[%d]: got %q, want %q", i, conv.Messages[i].Content, c)
		}
	}
}

func TestAppendMessageKeepsClientTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	project := primitive.NewObjectID()
	ts := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	if err := store.AppendMessage(ctx, project, models.Message{
		Sender: primitive.NewObjectID(), Content: "dated", Timestamp: ts,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	conv, err := store.GetByProject(ctx, project)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !conv.Messages[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp: got %v, want %v", conv.Messages[0].Timestamp, ts)
	}
}

func TestConversationsAreScopedToProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p1 := primitive.NewObjectID()
	p2 := primitive.NewObjectID()
	sender := primitive.NewObjectID()

	if err := store.AppendMessage(ctx, p1, models.Message{Sender: sender, Content: "for p1"}); err != nil {
		t.Fatalf("append p1: %v", err)
	}
	if err := store.AppendMessage(ctx, p2, models.Message{Sender: sender, Content: "for p2"}); err != nil {
		t.Fatalf("append p2: %v", err)
	}

	c1, err := store.GetByProject(ctx, p1)
	if err != nil {
		t.Fatalf("get p1: %v", err)
	}
	if len(c1.Messages) != 1 || c1.Messages[0].Content != "for p1" {
		t.Errorf("p1 conversation: got %+v", c1.Messages)
	}
}

func TestDeleteByProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	project := primitive.NewObjectID()
	if err := store.AppendMessage(ctx, project, models.Message{
		Sender: primitive.NewObjectID(), Content: "bye",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	deleted, err := store.DeleteByProject(ctx, project)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted: got %d, want 1", deleted)
	}
	if _, err := store.GetByProject(ctx, project); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}
