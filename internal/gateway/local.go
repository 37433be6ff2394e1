// Package gateway implements the push gateway over in-process
// WebSocket connections.
package gateway

import (
	"context"
	"sync"

	"github.com/coder/websocket"

	"github.com/sockchat/sockchat/internal/broadcast"
)

// Local maps connection handles to live WebSocket connections and
// delivers point-to-point pushes. It holds transport state only; the
// connection registry is tracked separately in the store.
type Local struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

// NewLocal creates an empty gateway.
func NewLocal() *Local {
	return &Local{conns: make(map[string]*websocket.Conn)}
}

// Bind associates a connection handle with a live socket.
func (g *Local) Bind(connectionID string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns[connectionID] = conn
}

// Release drops the binding for a connection handle. Releasing an
// unknown handle is a no-op.
func (g *Local) Release(connectionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns, connectionID)
}

// PostToConnection writes one text frame to the target connection.
// Returns broadcast.ErrGone when the handle has no live socket.
func (g *Local) PostToConnection(ctx context.Context, connectionID string, data []byte) error {
	g.mu.RLock()
	conn := g.conns[connectionID]
	g.mu.RUnlock()

	if conn == nil {
		return broadcast.ErrGone
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
