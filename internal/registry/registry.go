// Package registry tracks the set of currently active connection
// handles.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sockchat/sockchat/internal/store"
)

// Registry records which transport-level connections are live. It is
// eventually consistent with respect to concurrent broadcasts: a
// connection removed mid-fanout may still receive, or miss, a given
// message.
type Registry struct {
	store store.Store
}

// New creates a registry backed by the given store.
func New(s store.Store) *Registry {
	return &Registry{store: s}
}

// Register records a connection handle. Idempotent upsert.
func (r *Registry) Register(ctx context.Context, connectionID string) error {
	if err := r.store.PutConnection(ctx, connectionID); err != nil {
		return fmt.Errorf("register connection: %w", err)
	}
	slog.Info("Connection registered", "connection_id", connectionID)
	return nil
}

// Unregister removes a connection handle. Removing an absent handle
// succeeds.
func (r *Registry) Unregister(ctx context.Context, connectionID string) error {
	if err := r.store.DeleteConnection(ctx, connectionID); err != nil {
		return fmt.Errorf("unregister connection: %w", err)
	}
	slog.Info("Connection unregistered", "connection_id", connectionID)
	return nil
}

// ListAll returns every registered connection handle, unordered.
func (r *Registry) ListAll(ctx context.Context) ([]string, error) {
	ids, err := r.store.ListConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return ids, nil
}
