// internal/app/system/realtime/hub.go

// Package realtime implements the collaboration event layer: room-scoped
// fan-out of chat, task, and notification events over long-lived WebSocket
// connections, with a process-wide presence table for private pushes.
package realtime

import (
	"encoding/json"

	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Hub tracks live connections and their room memberships, and routes typed
// events between them. Persistence is delegated to the EventStore; the hub
// holds no message or task state of its own.
//
// All map mutation happens under mu inside a single method call; no lock is
// held across a persistence call, so two events for the same room can
// interleave at the store (last write wins — accepted).
type Hub struct {
	store    EventStore
	presence Presence
	log      *zap.Logger
	sanitize *bluemonday.Policy

	mu      sync.RWMutex
	clients map[string]*Client            // connection id -> client
	rooms   map[string]map[string]*Client // room id -> connection id -> client
}

// NewHub creates a hub routing through store, with presence as the directory
// table. Chat message content is stripped of HTML before persistence and
// fan-out.
func NewHub(store EventStore, presence Presence, logger *zap.Logger) *Hub {
	return &Hub{
		store:    store,
		presence: presence,
		log:      logger,
		sanitize: bluemonday.StrictPolicy(),
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]*Client),
	}
}

// Register adds a freshly-upgraded connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Info("connection opened",
		zap.String("conn_id", c.id),
		zap.Int("connections", total))
}

// Unregister removes a connection: drops it from every room it joined,
// purges its directory entry, and closes its send channel. Safe to call more
// than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	for roomID := range c.rooms {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, c.id)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.presence.DropConn(c.id)
	c.closeSend()
	h.log.Info("connection closed",
		zap.String("conn_id", c.id),
		zap.Int("connections", total))
}

// BindIdentity records the connection's user in the directory table. The
// latest registration for a user wins; an empty userID is ignored. When the
// connection was authenticated at upgrade time, a mismatched userID is
// rejected — the client does not get to assert an identity it doesn't hold.
func (h *Hub) BindIdentity(c *Client, userID string) bool {
	if userID == "" {
		return false
	}
	if c.authUserID != "" && c.authUserID != userID {
		h.log.Warn("register rejected: identity mismatch",
			zap.String("conn_id", c.id),
			zap.String("claimed", userID))
		return false
	}
	c.userID = userID
	h.presence.Bind(userID, c.id)
	return true
}

// JoinRoom adds the connection to a room. Rooms exist implicitly: the first
// join creates the member set, the last disconnect removes it. Authorization
// is the HTTP layer's concern and has already happened by the time a client
// holds a room id.
func (h *Hub) JoinRoom(c *Client, roomID string) {
	if roomID == "" {
		return
	}
	h.mu.Lock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[c.id] = c
	c.rooms[roomID] = struct{}{}
	h.mu.Unlock()
	h.log.Info("joined room",
		zap.String("conn_id", c.id),
		zap.String("room", roomID))
}

// PushNotification delivers data directly to the recipient's current
// connection, if one is registered. It reports whether a live delivery was
// attempted; an offline recipient is not an error — the durable record has
// already been written by whoever is calling this.
func (h *Hub) PushNotification(recipientID string, data json.RawMessage) bool {
	connID, ok := h.presence.Lookup(recipientID)
	if !ok {
		return false
	}
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		// Stale directory entry; the disconnect purge will catch up.
		return false
	}
	h.deliver(c, Envelope{Event: EventReceiveNotification, Data: data})
	return true
}

// broadcastRoom fans env out to every connection in the room, minus exclude
// (nil means no exclusion). Delivery is best-effort: a receiver with a full
// send buffer misses the frame rather than stalling the room.
func (h *Hub) broadcastRoom(roomID string, exclude *Client, env Envelope) {
	h.mu.RLock()
	members := h.rooms[roomID]
	targets := make([]*Client, 0, len(members))
	for _, c := range members {
		if c == exclude {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, env)
	}
}

// deliver queues a frame on the client's send channel. The frame is dropped
// when the writer has fallen behind or the client was unregistered after the
// broadcast snapshot captured it.
func (h *Hub) deliver(c *Client, env Envelope) {
	frame, err := json.Marshal(env)
	if err != nil {
		h.log.Error("marshal outbound event", zap.Error(err))
		return
	}
	if !c.enqueue(frame) {
		h.log.Warn("dropping frame",
			zap.String("conn_id", c.id),
			zap.String("event", env.Event))
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of connections currently joined to roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
