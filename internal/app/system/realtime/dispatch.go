// internal/app/system/realtime/dispatch.go
package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Dispatch routes one inbound frame to its handler. Handlers run on the
// connection's read goroutine: short, with persistence awaited inline and no
// hub lock held across it. Nothing error-shaped is broadcast; failures are
// logged, the event dropped, and — when the client asked for one — reported
// back in the ack.
func (h *Hub) Dispatch(ctx context.Context, c *Client, env Envelope) {
	var ok bool
	var errMsg string

	switch env.Event {
	case EventRegister:
		ok, errMsg = h.onRegister(c, env.Data)
	case EventJoinRoom:
		ok, errMsg = h.onJoinRoom(c, env.Data)
	case EventSendMessage:
		ok, errMsg = h.onSendMessage(ctx, c, env.Data)
	case EventCreateTask:
		ok, errMsg = h.onCreateTask(ctx, c, env.Data)
	case EventUpdateTaskStatus:
		ok, errMsg = h.onUpdateTaskStatus(ctx, c, env.Data)
	case EventSendNotification:
		ok, errMsg = h.onSendNotification(c, env.Data)
	default:
		ok, errMsg = false, "unknown event"
		h.log.Warn("unknown event",
			zap.String("conn_id", c.id),
			zap.String("event", env.Event))
	}

	if env.Ack != 0 {
		h.ack(c, env.Ack, ok, errMsg)
	}
}

func (h *Hub) ack(c *Client, id int64, ok bool, errMsg string) {
	data, err := json.Marshal(AckResult{Ack: id, OK: ok, Error: errMsg})
	if err != nil {
		return
	}
	h.deliver(c, Envelope{Event: EventAck, Ack: id, Data: data})
}

func (h *Hub) onRegister(c *Client, data json.RawMessage) (bool, string) {
	var p RegisterPayload
	if err := json.Unmarshal(data, &p); err != nil {
		// Also accept a bare string, the original wire shape.
		var userID string
		if err2 := json.Unmarshal(data, &userID); err2 != nil {
			return false, "malformed register payload"
		}
		p.UserID = userID
	}
	if p.UserID == "" {
		// Silently ignored on the broadcast side; the ack still says so.
		return false, "empty userId"
	}
	if !h.BindIdentity(c, p.UserID) {
		return false, "registration rejected"
	}
	return true, ""
}

func (h *Hub) onJoinRoom(c *Client, data json.RawMessage) (bool, string) {
	var p JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		var roomID string
		if err2 := json.Unmarshal(data, &roomID); err2 != nil {
			return false, "malformed joinRoom payload"
		}
		p.RoomID = roomID
	}
	if p.RoomID == "" {
		return false, "empty roomId"
	}
	h.JoinRoom(c, p.RoomID)
	return true, ""
}

// onSendMessage persists the message and relays it to everyone else in the
// room. The sender already rendered its copy optimistically, so it is
// excluded from the fan-out. A persistence failure means no broadcast.
func (h *Hub) onSendMessage(ctx context.Context, c *Client, data json.RawMessage) (bool, string) {
	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, "malformed sendMessage payload"
	}
	if p.RoomID == "" {
		return false, "empty roomId"
	}
	p.MessageData.Content = h.sanitize.Sanitize(p.MessageData.Content)

	if err := h.store.AppendMessage(ctx, p.RoomID, p.MessageData); err != nil {
		h.log.Error("persist message failed",
			zap.String("room", p.RoomID),
			zap.Error(err))
		return false, "message not saved"
	}

	out, err := json.Marshal(p.MessageData)
	if err != nil {
		h.log.Error("marshal message broadcast", zap.Error(err))
		return false, "message not broadcast"
	}
	h.broadcastRoom(p.RoomID, c, Envelope{Event: EventReceiveMessage, Data: out})
	return true, ""
}

// onCreateTask persists the draft and broadcasts the canonical task — with
// the server-assigned id — to the whole room. The creator gets it too; the
// board renders from broadcasts, not optimistic state.
func (h *Hub) onCreateTask(ctx context.Context, c *Client, data json.RawMessage) (bool, string) {
	var p CreateTaskPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, "malformed createTask payload"
	}
	if p.RoomID == "" {
		return false, "empty roomId"
	}

	task, err := h.store.CreateTask(ctx, p.RoomID, p.TaskData)
	if err != nil {
		h.log.Error("persist task failed",
			zap.String("room", p.RoomID),
			zap.Error(err))
		return false, "task not saved"
	}

	out, err := json.Marshal(task)
	if err != nil {
		h.log.Error("marshal task broadcast", zap.Error(err))
		return false, "task not broadcast"
	}
	h.broadcastRoom(p.RoomID, nil, Envelope{Event: EventTaskCreated, Data: out})
	return true, ""
}

// onUpdateTaskStatus persists the transition and broadcasts the new status
// to the whole room, initiator included. Every client updates its view from
// the broadcast. Replays are not deduplicated: two identical updates produce
// two broadcasts.
func (h *Hub) onUpdateTaskStatus(ctx context.Context, c *Client, data json.RawMessage) (bool, string) {
	var p UpdateTaskStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, "malformed updateTaskStatus payload"
	}
	if p.RoomID == "" || p.TaskID == "" {
		return false, "empty roomId or taskId"
	}

	if err := h.store.UpdateTaskStatus(ctx, p.TaskID, p.NewStatus); err != nil {
		h.log.Error("persist task status failed",
			zap.String("task", p.TaskID),
			zap.String("status", p.NewStatus),
			zap.Error(err))
		return false, "status not saved"
	}

	out, err := json.Marshal(UpdateTaskStatusPayload{TaskID: p.TaskID, NewStatus: p.NewStatus})
	if err != nil {
		return false, "status not broadcast"
	}
	h.broadcastRoom(p.RoomID, nil, Envelope{Event: EventTaskStatusUpdated, Data: out})
	return true, ""
}

// onSendNotification relays a notification straight to the recipient's
// connection. An offline recipient means no delivery and no queuing — the
// durable record was written by the HTTP action that triggered this push,
// and the recipient picks it up from the listing later.
func (h *Hub) onSendNotification(c *Client, data json.RawMessage) (bool, string) {
	var p SendNotificationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, "malformed sendNotification payload"
	}
	if p.RecipientID == "" {
		return false, "empty recipientId"
	}
	// Fire and forget: an offline recipient is not an error.
	h.PushNotification(p.RecipientID, p.NotificationData)
	return true, ""
}
