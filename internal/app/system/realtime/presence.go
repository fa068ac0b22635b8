// internal/app/system/realtime/presence.go
package realtime

import "sync"

// Presence is the directory table: user id → current connection id. The hub
// reads it to address private pushes. Entries are process-local and live
// only as long as the server; a clustered deployment can swap in a shared
// implementation without touching the hub.
type Presence interface {
	// Bind records userID → connID, overwriting any prior entry for userID.
	Bind(userID, connID string)
	// Lookup returns the current connection id for userID.
	Lookup(userID string) (connID string, ok bool)
	// DropConn removes whichever entry points at connID, if any. Called on
	// disconnect.
	DropConn(connID string)
}

// MemoryPresence is the in-process Presence backing store.
type MemoryPresence struct {
	mu    sync.RWMutex
	conns map[string]string // userID -> connID
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{conns: make(map[string]string)}
}

func (p *MemoryPresence) Bind(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[userID] = connID
}

func (p *MemoryPresence) Lookup(userID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.conns[userID]
	return connID, ok
}

// DropConn scans for the entry whose connection id matches and removes it.
// A connection has at most one identity, so the scan stops at the first hit.
func (p *MemoryPresence) DropConn(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for userID, id := range p.conns {
		if id == connID {
			delete(p.conns, userID)
			return
		}
	}
}
