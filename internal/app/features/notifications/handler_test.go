// internal/app/features/notifications/handler_test.go
package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teamforge/teamforge/internal/app/system/auth"
	"github.com/teamforge/teamforge/internal/domain/models"
	"github.com/teamforge/teamforge/internal/testutil"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// serveAuthed runs handler with a bearer token for userID, through the
// session loader so CurrentUser resolves inside.
func serveAuthed(t *testing.T, handler http.HandlerFunc, method string, userID primitive.ObjectID) *httptest.ResponseRecorder {
	t.Helper()
	mgr, err := auth.NewManager("test-secret", false, zap.NewNop())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := mgr.Issue(userID.Hex(), "Test User")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(method, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mgr.LoadSessionUser(handler).ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, db *mongo.Database, recipient primitive.ObjectID, n int) {
	t.Helper()
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	sender := primitive.NewObjectID()
	for i := 0; i < n; i++ {
		fx.CreateNotification(ctx, recipient, sender, "wants to join your project")
	}
}

func TestServeListUnread(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, zap.NewNop())

	recipient := primitive.NewObjectID()
	seed(t, db, recipient, 2)
	seed(t, db, primitive.NewObjectID(), 1) // someone else's

	rec := serveAuthed(t, h.ServeList, http.MethodGet, recipient)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data []models.Notification `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 {
		t.Errorf("notifications: got %d, want 2", len(body.Data))
	}
	for _, n := range body.Data {
		if n.Recipient != recipient {
			t.Error("foreign notification leaked into the listing")
		}
	}
}

func TestServeListRequiresAuth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestServeMarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, zap.NewNop())

	recipient := primitive.NewObjectID()
	seed(t, db, recipient, 3)

	rec := serveAuthed(t, h.ServeMarkRead, http.MethodPost, recipient)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: got %d, body %s", rec.Code, rec.Body.String())
	}

	rec = serveAuthed(t, h.ServeList, http.MethodGet, recipient)
	var body struct {
		Data []models.Notification `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 0 {
		t.Errorf("unread after mark: got %d, want 0", len(body.Data))
	}
}
