package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sockchat/sockchat/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory Store, used in tests and
// for running the server without a database file.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]domain.Session
	connections map[string]struct{}
	messages    []domain.Message
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]domain.Session),
		connections: make(map[string]struct{}),
	}
}

// GetSession retrieves a session by ID, treating expired records as
// absent.
func (m *MemoryStore) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok || sess.Expired(time.Now()) {
		return nil, nil
	}
	return &sess, nil
}

// PutSession creates or replaces a session record.
func (m *MemoryStore) PutSession(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.SessionID] = *session
	return nil
}

// PutConnection records a connection handle.
func (m *MemoryStore) PutConnection(_ context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connections[connectionID] = struct{}{}
	return nil
}

// DeleteConnection removes a connection handle.
func (m *MemoryStore) DeleteConnection(_ context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.connections, connectionID)
	return nil
}

// ListConnections returns all recorded connection IDs.
func (m *MemoryStore) ListConnections(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	return ids, nil
}

// LatestMessage returns the highest-indexed message for a room.
func (m *MemoryStore) LatestMessage(ctx context.Context, room string) (*domain.Message, error) {
	msgs, err := m.RecentMessages(ctx, room, 1)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

// PutMessage appends a message. Duplicate (room, index) pairs are
// stored as-is, matching the persistent store's lack of a uniqueness
// constraint.
func (m *MemoryStore) PutMessage(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, *msg)
	return nil
}

// RecentMessages returns up to limit messages for a room, newest
// first. Among messages sharing an index, later insertions sort first.
func (m *MemoryStore) RecentMessages(_ context.Context, room string, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var msgs []domain.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Room == room {
			msgs = append(msgs, m.messages[i])
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Index > msgs[j].Index
	})
	if limit >= 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
