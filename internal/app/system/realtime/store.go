// internal/app/system/realtime/store.go
package realtime

import (
	"context"
	"fmt"

	conversationstore "github.com/teamforge/teamforge/internal/app/store/conversations"
	taskstore "github.com/teamforge/teamforge/internal/app/store/tasks"
	"github.com/teamforge/teamforge/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventStore is the persistence collaborator the hub relays through. The hub
// never keeps authoritative state itself: a message or task exists once the
// store says so, and only then is it broadcast.
type EventStore interface {
	// AppendMessage appends msg to the room's conversation, creating the
	// conversation on first use.
	AppendMessage(ctx context.Context, roomID string, msg MessagePayload) error
	// CreateTask persists a draft and returns the canonical task with the
	// server-assigned id and timestamps.
	CreateTask(ctx context.Context, roomID string, draft TaskDraft) (models.Task, error)
	// UpdateTaskStatus applies a status transition to an existing task.
	UpdateTaskStatus(ctx context.Context, taskID, newStatus string) error
}

// MongoEventStore adapts the Mongo-backed stores to the hub's EventStore
// contract, translating wire-format string ids into ObjectIDs.
type MongoEventStore struct {
	conversations *conversationstore.Store
	tasks         *taskstore.Store
}

func NewMongoEventStore(db *mongo.Database) *MongoEventStore {
	return &MongoEventStore{
		conversations: conversationstore.New(db),
		tasks:         taskstore.New(db),
	}
}

func (s *MongoEventStore) AppendMessage(ctx context.Context, roomID string, msg MessagePayload) error {
	projectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return fmt.Errorf("invalid room id %q: %w", roomID, err)
	}
	senderID, err := primitive.ObjectIDFromHex(msg.Sender.ID)
	if err != nil {
		return fmt.Errorf("invalid sender id %q: %w", msg.Sender.ID, err)
	}
	doc := models.Message{
		Sender:  senderID,
		Content: msg.Content,
	}
	if msg.Timestamp != nil {
		doc.Timestamp = *msg.Timestamp
	}
	return s.conversations.AppendMessage(ctx, projectID, doc)
}

func (s *MongoEventStore) CreateTask(ctx context.Context, roomID string, draft TaskDraft) (models.Task, error) {
	projectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return models.Task{}, fmt.Errorf("invalid room id %q: %w", roomID, err)
	}
	createdBy, err := primitive.ObjectIDFromHex(draft.CreatedBy)
	if err != nil {
		return models.Task{}, fmt.Errorf("invalid creator id %q: %w", draft.CreatedBy, err)
	}
	t := models.Task{
		Project:     projectID,
		Title:       draft.Title,
		Description: draft.Description,
		CreatedBy:   createdBy,
		Status:      draft.Status,
		DueDate:     draft.DueDate,
	}
	if draft.Assignee != "" {
		assignee, err := primitive.ObjectIDFromHex(draft.Assignee)
		if err != nil {
			return models.Task{}, fmt.Errorf("invalid assignee id %q: %w", draft.Assignee, err)
		}
		t.Assignee = &assignee
	}
	return s.tasks.Create(ctx, t)
}

func (s *MongoEventStore) UpdateTaskStatus(ctx context.Context, taskID, newStatus string) error {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", taskID, err)
	}
	return s.tasks.UpdateStatus(ctx, id, newStatus)
}
