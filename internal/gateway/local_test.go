package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sockchat/sockchat/internal/broadcast"
)

func TestPostToUnknownConnection(t *testing.T) {
	g := NewLocal()

	err := g.PostToConnection(context.Background(), "ghost", []byte("payload"))

	assert.ErrorIs(t, err, broadcast.ErrGone)
}

func TestReleaseUnknownConnection(t *testing.T) {
	g := NewLocal()

	// Releasing a handle that was never bound is a no-op.
	g.Release("ghost")

	err := g.PostToConnection(context.Background(), "ghost", []byte("payload"))
	assert.ErrorIs(t, err, broadcast.ErrGone)
}

func TestReleasedConnectionIsGone(t *testing.T) {
	g := NewLocal()

	g.Bind("c1", nil)
	g.Release("c1")

	err := g.PostToConnection(context.Background(), "c1", []byte("payload"))
	assert.ErrorIs(t, err, broadcast.ErrGone)
}
