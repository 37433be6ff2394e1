package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sockchat/sockchat/internal/domain"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestSQLiteSessions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("absent session", func(t *testing.T) {
		sess, err := s.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, sess)
	})

	t.Run("put and get", func(t *testing.T) {
		err := s.PutSession(ctx, &domain.Session{
			SessionID: "abc",
			Username:  "alice",
			CreatedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		})
		require.NoError(t, err)

		sess, err := s.GetSession(ctx, "abc")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, "alice", sess.Username)
	})

	t.Run("expired session is absent", func(t *testing.T) {
		err := s.PutSession(ctx, &domain.Session{
			SessionID: "old",
			Username:  "bob",
			CreatedAt: now.Add(-48 * time.Hour),
			ExpiresAt: now.Add(-24 * time.Hour),
		})
		require.NoError(t, err)

		sess, err := s.GetSession(ctx, "old")
		require.NoError(t, err)
		assert.Nil(t, sess)
	})

	t.Run("re-registering replaces", func(t *testing.T) {
		err := s.PutSession(ctx, &domain.Session{
			SessionID: "abc",
			Username:  "alice2",
			CreatedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		})
		require.NoError(t, err)

		sess, err := s.GetSession(ctx, "abc")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, "alice2", sess.Username)
	})
}

func TestSQLiteConnections(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ids, err := s.ListConnections(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.PutConnection(ctx, "c1"))
	require.NoError(t, s.PutConnection(ctx, "c2"))
	// Re-registering the same ID is an upsert, not an error.
	require.NoError(t, s.PutConnection(ctx, "c1"))

	ids, err = s.ListConnections(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)

	require.NoError(t, s.DeleteConnection(ctx, "c1"))
	// Deleting an absent ID succeeds.
	require.NoError(t, s.DeleteConnection(ctx, "c1"))

	ids, err = s.ListConnections(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c2"}, ids)
}

func TestSQLiteMessages(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	latest, err := s.LatestMessage(ctx, domain.DefaultRoom)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i := int64(0); i < 10; i++ {
		err := s.PutMessage(ctx, &domain.Message{
			Room:      domain.DefaultRoom,
			Index:     i,
			Timestamp: 1700000000 + i,
			Username:  "alice",
			Content:   "hello",
		})
		require.NoError(t, err)
	}

	t.Run("latest has highest index", func(t *testing.T) {
		latest, err := s.LatestMessage(ctx, domain.DefaultRoom)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, int64(9), latest.Index)
	})

	t.Run("recent is strictly descending", func(t *testing.T) {
		msgs, err := s.RecentMessages(ctx, domain.DefaultRoom, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 10)
		for i, m := range msgs {
			assert.Equal(t, int64(9-i), m.Index)
		}
	})

	t.Run("limit is honored", func(t *testing.T) {
		msgs, err := s.RecentMessages(ctx, domain.DefaultRoom, 3)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, int64(9), msgs[0].Index)
	})

	t.Run("other rooms are isolated", func(t *testing.T) {
		msgs, err := s.RecentMessages(ctx, "lobby", 10)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("duplicate index is storable", func(t *testing.T) {
		// Two concurrent senders may compute the same index; the
		// store must accept both rows.
		err := s.PutMessage(ctx, &domain.Message{
			Room:      domain.DefaultRoom,
			Index:     9,
			Timestamp: 1700000010,
			Username:  "bob",
			Content:   "same index",
		})
		require.NoError(t, err)

		msgs, err := s.RecentMessages(ctx, domain.DefaultRoom, 2)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, int64(9), msgs[0].Index)
		assert.Equal(t, int64(9), msgs[1].Index)
	})
}
