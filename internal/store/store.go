// Package store provides the persistence layer for sessions,
// connections, and the room message log.
package store

import (
	"context"

	"github.com/sockchat/sockchat/internal/domain"
)

// Store is the key-value persistence contract the chat core depends
// on. It covers three logical tables: Sessions keyed by session ID,
// Connections keyed by connection ID, and Messages keyed by
// (room, index).
type Store interface {
	// GetSession retrieves a session by ID. Absent and expired
	// sessions both return (nil, nil); expiry is a store-side
	// semantic, callers never see a stale record.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// PutSession creates or replaces a session record.
	PutSession(ctx context.Context, session *domain.Session) error

	// PutConnection records a live connection handle. Upsert
	// semantics; registering the same ID twice is not an error.
	PutConnection(ctx context.Context, connectionID string) error

	// DeleteConnection removes a connection handle. Deleting an
	// absent ID is not an error.
	DeleteConnection(ctx context.Context, connectionID string) error

	// ListConnections returns every currently recorded connection
	// ID, in no particular order.
	ListConnections(ctx context.Context) ([]string, error)

	// LatestMessage returns the highest-indexed message for a room,
	// or (nil, nil) when the room has no messages.
	LatestMessage(ctx context.Context, room string) (*domain.Message, error)

	// PutMessage writes a message. The store does not enforce
	// uniqueness on (room, index); concurrent writers may store two
	// messages under the same index.
	PutMessage(ctx context.Context, msg *domain.Message) error

	// RecentMessages returns up to limit messages for a room,
	// descending by index (newest first).
	RecentMessages(ctx context.Context, room string, limit int) ([]domain.Message, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}
