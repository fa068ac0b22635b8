// internal/app/system/realtime/client.go
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait is the deadline for a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long a connection may go without a pong before the
	// read side gives up.
	pongWait = 60 * time.Second
	// pingInterval must be shorter than pongWait.
	pingInterval = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames.
	maxMessageSize = 64 * 1024
	// sendBufferSize is the per-connection outbound queue. A receiver that
	// falls further behind than this starts missing frames.
	sendBufferSize = 256
)

// Client is one live connection. The transport-assigned connection id is
// opaque and unique per session; userID stays empty until the client sends a
// register event. A client may sit in any number of rooms.
type Client struct {
	id         string
	authUserID string // identity proven at upgrade time; empty if unauthenticated
	userID     string // identity bound via register
	conn       *websocket.Conn
	hub        *Hub
	send       chan []byte
	rooms      map[string]struct{}

	// sendMu orders enqueue against closeSend: a broadcast that captured
	// this client before its unregister must not hit a closed channel.
	sendMu sync.Mutex
	closed bool
}

// NewClient wraps an upgraded connection. authUserID is the identity the
// HTTP layer verified during the upgrade, used to vet register events.
func NewClient(hub *Hub, conn *websocket.Conn, authUserID string) *Client {
	return &Client{
		id:         uuid.NewString(),
		authUserID: authUserID,
		conn:       conn,
		hub:        hub,
		send:       make(chan []byte, sendBufferSize),
		rooms:      make(map[string]struct{}),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// enqueue queues a frame for the write pump. It reports false when the
// client is already closed or its send buffer is full; either way the frame
// is dropped rather than blocking or panicking.
func (c *Client) enqueue(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. After it returns, enqueue
// refuses further frames.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Run registers the client and drives both pumps until the connection dies.
// It blocks until the read side exits; cleanup is handled on the way out.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	go c.writePump()
	c.readPump(ctx)
}

// readPump reads frames off the wire and dispatches them. It owns all reads
// on the connection. On any read error the connection is torn down; the
// unregister path is the only cleanup there is.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("connection read failed",
					zap.String("conn_id", c.id),
					zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			c.hub.log.Warn("malformed frame",
				zap.String("conn_id", c.id),
				zap.Error(err))
			continue
		}
		c.hub.Dispatch(ctx, c, env)
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings. It owns all writes on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel on unregister.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
