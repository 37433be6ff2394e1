// Package broadcast fans a payload out to a set of connections.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
)

// ErrGone indicates the target connection no longer exists at the
// push gateway.
var ErrGone = errors.New("connection gone")

// Gateway is the point-to-point push interface used to deliver a
// payload to one connection.
type Gateway interface {
	PostToConnection(ctx context.Context, connectionID string, data []byte) error
}

// Dispatcher delivers a payload to every given connection,
// independently of per-target delivery success.
type Dispatcher struct {
	gw Gateway
}

// NewDispatcher creates a dispatcher over the given gateway.
func NewDispatcher(gw Gateway) *Dispatcher {
	return &Dispatcher{gw: gw}
}

// Broadcast attempts one delivery per connection and returns the
// number of targets attempted. A failed delivery is logged and
// absorbed; it does not abort the remaining targets, is never retried,
// and never fails the broadcast. Stale registrations are left for the
// registry to clean up, never removed here.
func (d *Dispatcher) Broadcast(ctx context.Context, connectionIDs []string, payload []byte) int {
	for _, id := range connectionIDs {
		if err := d.gw.PostToConnection(ctx, id, payload); err != nil {
			slog.Debug("Broadcast delivery failed", "connection_id", id, "error", err)
		}
	}
	return len(connectionIDs)
}
