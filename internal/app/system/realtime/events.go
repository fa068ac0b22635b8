// internal/app/system/realtime/events.go
package realtime

import (
	"encoding/json"
	"time"
)

// Client→server event names.
const (
	EventRegister         = "register"
	EventJoinRoom         = "joinRoom"
	EventSendMessage      = "sendMessage"
	EventCreateTask       = "createTask"
	EventUpdateTaskStatus = "updateTaskStatus"
	EventSendNotification = "sendNotification"
)

// Server→client event names.
const (
	EventReceiveMessage      = "receiveMessage"
	EventTaskCreated         = "taskCreated"
	EventTaskStatusUpdated   = "taskStatusUpdated"
	EventReceiveNotification = "receiveNotification"
	EventAck                 = "ack"
)

// Envelope is the frame exchanged in both directions: an event name, an
// optional data payload, and an optional ack id. A client that sets Ack to a
// nonzero value gets an EventAck reply carrying the same id once the event
// has been handled (or dropped).
type Envelope struct {
	Event string          `json:"event"`
	Ack   int64           `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AckResult is the payload of an EventAck reply.
type AckResult struct {
	Ack   int64  `json:"ack"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// RegisterPayload binds the connection to a user identifier.
type RegisterPayload struct {
	UserID string `json:"userId"`
}

// JoinRoomPayload adds the connection to a room. Room ids equal project ids.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// MessageSender identifies the author of a chat message. The client sends
// the populated form so receivers can render a name without a lookup.
type MessageSender struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName,omitempty"`
}

// MessagePayload is the messageData field of a sendMessage event, and the
// payload of the receiveMessage broadcast.
type MessagePayload struct {
	Sender    MessageSender `json:"sender"`
	Content   string        `json:"content"`
	Timestamp *time.Time    `json:"timestamp,omitempty"`
}

// SendMessagePayload is the data of a sendMessage event.
type SendMessagePayload struct {
	RoomID      string         `json:"roomId"`
	MessageData MessagePayload `json:"messageData"`
}

// TaskDraft is the client-supplied task draft. The canonical task object
// broadcast to the room is the persistence layer's, never this draft.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	CreatedBy   string     `json:"createdBy"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// CreateTaskPayload is the data of a createTask event.
type CreateTaskPayload struct {
	RoomID   string    `json:"roomId"`
	TaskData TaskDraft `json:"taskData"`
}

// UpdateTaskStatusPayload is the data of an updateTaskStatus event, and —
// minus RoomID — the shape of the taskStatusUpdated broadcast.
type UpdateTaskStatusPayload struct {
	RoomID    string `json:"roomId,omitempty"`
	TaskID    string `json:"taskId"`
	NewStatus string `json:"newStatus"`
}

// SendNotificationPayload is the data of a sendNotification event. The
// notification body is opaque to this layer; it is relayed to the recipient
// verbatim. The durable record is written by the HTTP layer before (or
// instead of) this live push.
type SendNotificationPayload struct {
	RecipientID      string          `json:"recipientId"`
	NotificationData json.RawMessage `json:"notificationData"`
}
