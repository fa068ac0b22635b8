// internal/app/system/realtime/hub_test.go
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/teamforge/teamforge/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeStore records persistence calls and can be told to fail.
type fakeStore struct {
	mu         sync.Mutex
	failWrites bool

	messages []MessagePayload
	tasks    []models.Task
	updates  []UpdateTaskStatusPayload
}

var errStoreDown = errors.New("store down")

func (s *fakeStore) AppendMessage(ctx context.Context, roomID string, msg MessagePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeStore) CreateTask(ctx context.Context, roomID string, draft TaskDraft) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return models.Task{}, errStoreDown
	}
	status := draft.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !models.IsValidTaskStatus(status) {
		return models.Task{}, errors.New("invalid status")
	}
	t := models.Task{
		ID:        primitive.NewObjectID(),
		Title:     draft.Title,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *fakeStore) UpdateTaskStatus(ctx context.Context, taskID, newStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	if !models.IsValidTaskStatus(newStatus) {
		return errors.New("invalid status")
	}
	s.updates = append(s.updates, UpdateTaskStatusPayload{TaskID: taskID, NewStatus: newStatus})
	return nil
}

func newTestHub(store EventStore) *Hub {
	return NewHub(store, NewMemoryPresence(), zap.NewNop())
}

// newTestClient attaches a pumpless client to the hub. Tests drive Dispatch
// directly and read frames off the send channel.
func newTestClient(h *Hub) *Client {
	c := NewClient(h, nil, "")
	h.Register(c)
	return c
}

func dispatch(t *testing.T, h *Hub, c *Client, event string, ack int64, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	h.Dispatch(context.Background(), c, Envelope{Event: event, Ack: ack, Data: data})
}

func recvFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return env
	case <-time.After(time.Second):
		t.Fatal("expected a frame, got none")
		return Envelope{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case frame := <-c.send:
		t.Fatalf("expected no frame, got %s", frame)
	default:
	}
}

func TestRegisterLatestConnectionWins(t *testing.T) {
	h := newTestHub(&fakeStore{})
	first := newTestClient(h)
	second := newTestClient(h)

	dispatch(t, h, first, EventRegister, 0, RegisterPayload{UserID: "u1"})
	dispatch(t, h, second, EventRegister, 0, RegisterPayload{UserID: "u1"})

	connID, ok := h.presence.Lookup("u1")
	if !ok {
		t.Fatal("expected u1 in the directory table")
	}
	if connID != second.id {
		t.Errorf("directory entry: got %s, want the most recent connection %s", connID, second.id)
	}

	// The stale connection must not receive u1's private pushes.
	h.PushNotification("u1", json.RawMessage(`{"message":"hello"}`))
	assertNoFrame(t, first)
	env := recvFrame(t, second)
	if env.Event != EventReceiveNotification {
		t.Errorf("event: got %q, want %q", env.Event, EventReceiveNotification)
	}
}

func TestRegisterEmptyUserIDIgnored(t *testing.T) {
	h := newTestHub(&fakeStore{})
	c := newTestClient(h)

	dispatch(t, h, c, EventRegister, 7, RegisterPayload{UserID: ""})

	env := recvFrame(t, c)
	if env.Event != EventAck {
		t.Fatalf("event: got %q, want ack", env.Event)
	}
	var res AckResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if res.OK {
		t.Error("expected ack to report failure for empty userId")
	}
	if _, ok := h.presence.Lookup(""); ok {
		t.Error("empty userId must not land in the directory table")
	}
}

func TestRegisterBareStringPayload(t *testing.T) {
	h := newTestHub(&fakeStore{})
	c := newTestClient(h)

	// The original wire shape: register("u1") rather than an object.
	h.Dispatch(context.Background(), c, Envelope{Event: EventRegister, Data: json.RawMessage(`"u1"`)})

	if connID, ok := h.presence.Lookup("u1"); !ok || connID != c.id {
		t.Errorf("expected u1 bound to %s, got %q (ok=%v)", c.id, connID, ok)
	}
}

func TestRegisterIdentityMismatchRejected(t *testing.T) {
	h := newTestHub(&fakeStore{})
	c := NewClient(h, nil, "u1")
	h.Register(c)

	dispatch(t, h, c, EventRegister, 0, RegisterPayload{UserID: "u2"})

	if _, ok := h.presence.Lookup("u2"); ok {
		t.Error("a connection authenticated as u1 must not register as u2")
	}

	dispatch(t, h, c, EventRegister, 0, RegisterPayload{UserID: "u1"})
	if connID, ok := h.presence.Lookup("u1"); !ok || connID != c.id {
		t.Error("registering the authenticated identity must succeed")
	}
}

func TestSendMessageExcludesSender(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)
	b := newTestClient(h)
	e := newTestClient(h)

	for _, c := range []*Client{a, b, e} {
		dispatch(t, h, c, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})
	}

	dispatch(t, h, a, EventSendMessage, 0, SendMessagePayload{
		RoomID:      "p1",
		MessageData: MessagePayload{Sender: MessageSender{ID: "u1"}, Content: "hi"},
	})

	assertNoFrame(t, a)

	for _, c := range []*Client{b, e} {
		env := recvFrame(t, c)
		if env.Event != EventReceiveMessage {
			t.Fatalf("event: got %q, want %q", env.Event, EventReceiveMessage)
		}
		var msg MessagePayload
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			t.Fatalf("unmarshal message: %v", err)
		}
		if msg.Content != "hi" {
			t.Errorf("content: got %q, want %q", msg.Content, "hi")
		}
		if msg.Sender.ID != "u1" {
			t.Errorf("sender: got %q, want %q", msg.Sender.ID, "u1")
		}
	}
}

func TestSendMessageNotDeliveredOutsideRoom(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)
	outsider := newTestClient(h)

	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})

	dispatch(t, h, a, EventSendMessage, 0, SendMessagePayload{
		RoomID:      "p1",
		MessageData: MessagePayload{Sender: MessageSender{ID: "u1"}, Content: "hi"},
	})

	assertNoFrame(t, outsider)
}

func TestSendMessagePersistFailureDropsBroadcast(t *testing.T) {
	store := &fakeStore{failWrites: true}
	h := newTestHub(store)
	a := newTestClient(h)
	b := newTestClient(h)
	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})
	dispatch(t, h, b, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})

	dispatch(t, h, a, EventSendMessage, 3, SendMessagePayload{
		RoomID:      "p1",
		MessageData: MessagePayload{Sender: MessageSender{ID: "u1"}, Content: "lost"},
	})

	// No broadcast to the room, but the sender's ack reports the drop.
	assertNoFrame(t, b)
	env := recvFrame(t, a)
	if env.Event != EventAck {
		t.Fatalf("event: got %q, want ack", env.Event)
	}
	var res AckResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if res.OK || res.Error == "" {
		t.Errorf("ack should carry the failure: %+v", res)
	}
}

func TestSendMessageStripsHTML(t *testing.T) {
	store := &fakeStore{}
	h := newTestHub(store)
	a := newTestClient(h)
	b := newTestClient(h)
	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})
	dispatch(t, h, b, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})

	dispatch(t, h, a, EventSendMessage, 0, SendMessagePayload{
		RoomID:      "p1",
		MessageData: MessagePayload{Sender: MessageSender{ID: "u1"}, Content: `<script>alert(1)</script>hi`},
	})

	env := recvFrame(t, b)
	var msg MessagePayload
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if msg.Content != "hi" {
		t.Errorf("content: got %q, want scripts stripped", msg.Content)
	}
	if len(store.messages) != 1 || store.messages[0].Content != "hi" {
		t.Error("persisted content must match the broadcast content")
	}
}

func TestCreateTaskBroadcastsCanonicalTaskToAll(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)
	b := newTestClient(h)
	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})
	dispatch(t, h, b, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})

	dispatch(t, h, a, EventCreateTask, 0, CreateTaskPayload{
		RoomID:   "p1",
		TaskData: TaskDraft{Title: "Design API", CreatedBy: "u1"},
	})

	// Unlike chat, the creator hears its own task back.
	for _, c := range []*Client{a, b} {
		env := recvFrame(t, c)
		if env.Event != EventTaskCreated {
			t.Fatalf("event: got %q, want %q", env.Event, EventTaskCreated)
		}
		var task models.Task
		if err := json.Unmarshal(env.Data, &task); err != nil {
			t.Fatalf("unmarshal task: %v", err)
		}
		if task.ID.IsZero() {
			t.Error("broadcast task must carry the server-assigned id")
		}
		if task.Status != models.TaskStatusTodo {
			t.Errorf("status: got %q, want %q", task.Status, models.TaskStatusTodo)
		}
		if task.Title != "Design API" {
			t.Errorf("title: got %q, want %q", task.Title, "Design API")
		}
	}
}

func TestUpdateTaskStatusBroadcastsToAll(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)
	b := newTestClient(h)
	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})
	dispatch(t, h, b, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})

	dispatch(t, h, b, EventUpdateTaskStatus, 0, UpdateTaskStatusPayload{
		RoomID: "p1", TaskID: "t1", NewStatus: models.TaskStatusCompleted,
	})

	for _, c := range []*Client{a, b} {
		env := recvFrame(t, c)
		if env.Event != EventTaskStatusUpdated {
			t.Fatalf("event: got %q, want %q", env.Event, EventTaskStatusUpdated)
		}
		var upd UpdateTaskStatusPayload
		if err := json.Unmarshal(env.Data, &upd); err != nil {
			t.Fatalf("unmarshal update: %v", err)
		}
		if upd.TaskID != "t1" || upd.NewStatus != models.TaskStatusCompleted {
			t.Errorf("update: got %+v", upd)
		}
		if upd.RoomID != "" {
			t.Errorf("room id must not leak into the broadcast, got %q", upd.RoomID)
		}
	}
}

func TestUpdateTaskStatusReplayBroadcastsTwice(t *testing.T) {
	store := &fakeStore{}
	h := newTestHub(store)
	a := newTestClient(h)
	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})

	upd := UpdateTaskStatusPayload{RoomID: "p1", TaskID: "t1", NewStatus: models.TaskStatusCompleted}
	dispatch(t, h, a, EventUpdateTaskStatus, 0, upd)
	dispatch(t, h, a, EventUpdateTaskStatus, 0, upd)

	// Broadcasts are not deduplicated.
	recvFrame(t, a)
	recvFrame(t, a)
	assertNoFrame(t, a)
	if len(store.updates) != 2 {
		t.Errorf("persisted updates: got %d, want 2", len(store.updates))
	}
}

func TestSendNotificationOfflineRecipient(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)

	// Nobody registered as u9: no delivery, no panic, caller unaffected.
	dispatch(t, h, a, EventSendNotification, 5, SendNotificationPayload{
		RecipientID:      "u9",
		NotificationData: json.RawMessage(`{"message":"hello"}`),
	})

	env := recvFrame(t, a)
	if env.Event != EventAck {
		t.Fatalf("event: got %q, want ack", env.Event)
	}
	assertNoFrame(t, a)
}

func TestSendNotificationDeliversToRecipientOnly(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)
	b := newTestClient(h)
	dispatch(t, h, b, EventRegister, 0, RegisterPayload{UserID: "u2"})

	dispatch(t, h, a, EventSendNotification, 0, SendNotificationPayload{
		RecipientID:      "u2",
		NotificationData: json.RawMessage(`{"message":"ping","type":"join_request"}`),
	})

	env := recvFrame(t, b)
	if env.Event != EventReceiveNotification {
		t.Fatalf("event: got %q, want %q", env.Event, EventReceiveNotification)
	}
	var body map[string]any
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if body["message"] != "ping" {
		t.Errorf("notification body: got %+v", body)
	}
	assertNoFrame(t, a)
}

func TestDisconnectPurgesPresenceAndRooms(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)
	b := newTestClient(h)
	dispatch(t, h, a, EventRegister, 0, RegisterPayload{UserID: "u1"})
	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})
	dispatch(t, h, b, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})

	h.Unregister(a)

	if _, ok := h.presence.Lookup("u1"); ok {
		t.Error("disconnect must purge the directory entry")
	}
	if got := h.RoomSize("p1"); got != 1 {
		t.Errorf("room size after disconnect: got %d, want 1", got)
	}

	// Neither a room broadcast nor a private push may touch the stale
	// connection or blow up.
	dispatch(t, h, b, EventSendMessage, 0, SendMessagePayload{
		RoomID:      "p1",
		MessageData: MessagePayload{Sender: MessageSender{ID: "u2"}, Content: "still here"},
	})
	if h.PushNotification("u1", json.RawMessage(`{}`)) {
		t.Error("push to a disconnected user must report no delivery")
	}

	if got := h.ClientCount(); got != 1 {
		t.Errorf("client count: got %d, want 1", got)
	}
}

func TestBroadcastRacingDisconnectDoesNotPanic(t *testing.T) {
	h := newTestHub(&fakeStore{})

	// Continuous room fan-out on one goroutine while connections churn
	// through register/join/unregister on another. A broadcast snapshot may
	// capture a client that unregisters before delivery; that frame must be
	// dropped, never sent on a closed channel.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		env := Envelope{Event: EventReceiveMessage, Data: json.RawMessage(`{}`)}
		for {
			select {
			case <-stop:
				return
			default:
				h.broadcastRoom("p1", nil, env)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		c := NewClient(h, nil, "")
		h.Register(c)
		h.JoinRoom(c, "p1")
		h.Unregister(c)
	}
	close(stop)
	wg.Wait()

	if got := h.ClientCount(); got != 0 {
		t.Errorf("client count after churn: got %d, want 0", got)
	}
	if got := h.RoomSize("p1"); got != 0 {
		t.Errorf("room size after churn: got %d, want 0", got)
	}
}

func TestDeliverAfterUnregisterDropsFrame(t *testing.T) {
	h := newTestHub(&fakeStore{})
	c := newTestClient(h)
	h.Unregister(c)

	// A stale snapshot delivering to a gone client is a silent drop.
	h.deliver(c, Envelope{Event: EventReceiveNotification, Data: json.RawMessage(`{}`)})
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)
	h.Unregister(a)
	h.Unregister(a) // must not close the send channel twice
}

func TestJoinMultipleRooms(t *testing.T) {
	h := newTestHub(&fakeStore{})
	a := newTestClient(h)
	b := newTestClient(h)
	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p1"})
	dispatch(t, h, a, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p2"})
	dispatch(t, h, b, EventJoinRoom, 0, JoinRoomPayload{RoomID: "p2"})

	dispatch(t, h, b, EventSendMessage, 0, SendMessagePayload{
		RoomID:      "p2",
		MessageData: MessagePayload{Sender: MessageSender{ID: "u2"}, Content: "p2 only"},
	})

	env := recvFrame(t, a)
	if env.Event != EventReceiveMessage {
		t.Fatalf("event: got %q", env.Event)
	}

	h.Unregister(a)
	if h.RoomSize("p1") != 0 || h.RoomSize("p2") != 1 {
		t.Error("disconnect must leave every joined room")
	}
}

func TestUnknownEventAcksFailure(t *testing.T) {
	h := newTestHub(&fakeStore{})
	c := newTestClient(h)

	h.Dispatch(context.Background(), c, Envelope{Event: "selfDestruct", Ack: 9})

	env := recvFrame(t, c)
	var res AckResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if res.OK || res.Ack != 9 {
		t.Errorf("ack: got %+v", res)
	}
}
