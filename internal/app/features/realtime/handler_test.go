// internal/app/features/realtime/handler_test.go
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teamforge/teamforge/internal/app/system/auth"
	rthub "github.com/teamforge/teamforge/internal/app/system/realtime"
	"github.com/teamforge/teamforge/internal/domain/models"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memStore keeps events in memory so the socket round-trip needs no database.
type memStore struct {
	messages []rthub.MessagePayload
}

func (s *memStore) AppendMessage(ctx context.Context, roomID string, msg rthub.MessagePayload) error {
	s.messages = append(s.messages, msg)
	return nil
}

func (s *memStore) CreateTask(ctx context.Context, roomID string, draft rthub.TaskDraft) (models.Task, error) {
	return models.Task{
		ID:        primitive.NewObjectID(),
		Title:     draft.Title,
		Status:    models.TaskStatusTodo,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *memStore) UpdateTaskStatus(ctx context.Context, taskID, newStatus string) error {
	return nil
}

func newWSServer(t *testing.T, allowAnonymous bool) (*httptest.Server, *rthub.Hub) {
	t.Helper()
	hub := rthub.NewHub(&memStore{}, rthub.NewMemoryPresence(), zap.NewNop())
	h := NewHandler(hub, allowAnonymous, zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/ws", Routes(h))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, ack int64, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env := rthub.Envelope{Event: event, Ack: ack, Data: data}
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func read(t *testing.T, conn *websocket.Conn) rthub.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env rthub.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return env
}

func TestServeWSRejectsAnonymousWhenDisallowed(t *testing.T) {
	srv, _ := newWSServer(t, false)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err == nil {
		t.Fatal("expected the handshake to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestServeWSAcceptsBearerToken(t *testing.T) {
	// The app installs the session loader globally, so wire it here too.
	mgr, err := auth.NewManager("test-secret", false, zap.NewNop())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	hub := rthub.NewHub(&memStore{}, rthub.NewMemoryPresence(), zap.NewNop())
	wrapped := chi.NewRouter()
	wrapped.Use(mgr.LoadSessionUser)
	wrapped.Mount("/ws", Routes(NewHandler(hub, false, zap.NewNop())))
	authSrv := httptest.NewServer(wrapped)
	t.Cleanup(authSrv.Close)

	token, err := mgr.Issue("u1", "Ada Lovelace")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn := dial(t, authSrv, header)

	// An authenticated socket registering its own identity succeeds.
	send(t, conn, rthub.EventRegister, 1, rthub.RegisterPayload{UserID: "u1"})
	env := read(t, conn)
	if env.Event != rthub.EventAck {
		t.Fatalf("event: got %q, want ack", env.Event)
	}
	var res rthub.AckResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if !res.OK || res.Ack != 1 {
		t.Fatalf("ack: got %+v", res)
	}

	// Claiming someone else's identity on the same socket is rejected.
	send(t, conn, rthub.EventRegister, 2, rthub.RegisterPayload{UserID: "u2"})
	env = read(t, conn)
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if res.OK {
		t.Error("mismatched identity must be rejected")
	}
}

func TestChatRoundTripOverSocket(t *testing.T) {
	srv, _ := newWSServer(t, true)

	sender := dial(t, srv, nil)
	receiver := dial(t, srv, nil)

	send(t, sender, rthub.EventJoinRoom, 1, rthub.JoinRoomPayload{RoomID: "p1"})
	read(t, sender) // join ack
	send(t, receiver, rthub.EventJoinRoom, 1, rthub.JoinRoomPayload{RoomID: "p1"})
	read(t, receiver)

	send(t, sender, rthub.EventSendMessage, 2, rthub.SendMessagePayload{
		RoomID: "p1",
		MessageData: rthub.MessagePayload{
			Sender:  rthub.MessageSender{ID: "u1", FullName: "Ada Lovelace"},
			Content: "hi",
		},
	})

	env := read(t, receiver)
	if env.Event != rthub.EventReceiveMessage {
		t.Fatalf("event: got %q, want %q", env.Event, rthub.EventReceiveMessage)
	}
	var msg rthub.MessagePayload
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if msg.Content != "hi" || msg.Sender.ID != "u1" {
		t.Errorf("message: got %+v", msg)
	}

	// The sender hears only its ack, never its own message.
	env = read(t, sender)
	if env.Event != rthub.EventAck {
		t.Fatalf("sender got %q, want only the ack", env.Event)
	}
}

func TestDisconnectLeavesRoom(t *testing.T) {
	srv, hub := newWSServer(t, true)

	conn := dial(t, srv, nil)
	send(t, conn, rthub.EventJoinRoom, 1, rthub.JoinRoomPayload{RoomID: "p1"})
	read(t, conn)

	if got := hub.RoomSize("p1"); got != 1 {
		t.Fatalf("room size: got %d, want 1", got)
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize("p1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("room member not purged after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("client count: got %d, want 0", got)
	}
}
