package chatlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sockchat/sockchat/internal/domain"
	"github.com/sockchat/sockchat/internal/store"
)

func TestAppendNextAssignsIndices(t *testing.T) {
	ctx := context.Background()
	log := New(store.NewMemory())

	first, err := log.AppendNext(ctx, domain.DefaultRoom, "alice", "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Index)
	assert.Equal(t, "alice", first.Username)
	assert.NotZero(t, first.Timestamp)

	second, err := log.AppendNext(ctx, domain.DefaultRoom, "bob", "hi")
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Index)
}

func TestRecentOrdering(t *testing.T) {
	ctx := context.Background()
	log := New(store.NewMemory())

	for i := 0; i < 10; i++ {
		_, err := log.AppendNext(ctx, domain.DefaultRoom, "alice", "msg")
		require.NoError(t, err)
	}

	msgs, err := log.Recent(ctx, domain.DefaultRoom, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 10)

	// Newest first, strictly descending.
	for i, m := range msgs {
		assert.Equal(t, int64(9-i), m.Index)
	}
}

// staleLatestStore simulates two senders that both read the same
// previous maximum before either writes.
type staleLatestStore struct {
	*store.MemoryStore
	latest *domain.Message
}

func (s *staleLatestStore) LatestMessage(_ context.Context, _ string) (*domain.Message, error) {
	return s.latest, nil
}

func TestConcurrentAppendsMayShareAnIndex(t *testing.T) {
	ctx := context.Background()
	st := &staleLatestStore{
		MemoryStore: store.NewMemory(),
		latest:      &domain.Message{Room: domain.DefaultRoom, Index: 4},
	}
	log := New(st)

	first, err := log.AppendNext(ctx, domain.DefaultRoom, "alice", "one")
	require.NoError(t, err)
	second, err := log.AppendNext(ctx, domain.DefaultRoom, "bob", "two")
	require.NoError(t, err)

	// The read-then-write sequence has no mutual exclusion, so both
	// writers compute index 5 and both rows land in the store.
	assert.Equal(t, int64(5), first.Index)
	assert.Equal(t, int64(5), second.Index)

	msgs, err := st.MemoryStore.RecentMessages(ctx, domain.DefaultRoom, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, msgs[0].Index, msgs[1].Index)
}
