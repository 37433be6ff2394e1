package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingGateway captures delivery attempts and fails selected
// targets.
type recordingGateway struct {
	mu       sync.Mutex
	attempts []string
	failing  map[string]error
}

func (g *recordingGateway) PostToConnection(_ context.Context, connectionID string, _ []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempts = append(g.attempts, connectionID)
	if err, ok := g.failing[connectionID]; ok {
		return err
	}
	return nil
}

func TestBroadcastDeliversToEveryTarget(t *testing.T) {
	gw := &recordingGateway{}
	d := NewDispatcher(gw)

	n := d.Broadcast(context.Background(), []string{"c1", "c2", "c3"}, []byte("payload"))

	assert.Equal(t, 3, n)
	assert.ElementsMatch(t, []string{"c1", "c2", "c3"}, gw.attempts)
}

func TestBroadcastAbsorbsPerTargetFailures(t *testing.T) {
	gw := &recordingGateway{failing: map[string]error{
		"c2": ErrGone,
		"c3": errors.New("write: broken pipe"),
	}}
	d := NewDispatcher(gw)

	n := d.Broadcast(context.Background(), []string{"c1", "c2", "c3", "c4"}, []byte("payload"))

	// A dead target neither aborts the fan-out nor triggers a retry.
	assert.Equal(t, 4, n)
	assert.ElementsMatch(t, []string{"c1", "c2", "c3", "c4"}, gw.attempts)
}

func TestBroadcastWithNoTargets(t *testing.T) {
	gw := &recordingGateway{}
	d := NewDispatcher(gw)

	n := d.Broadcast(context.Background(), nil, []byte("payload"))

	assert.Equal(t, 0, n)
	assert.Empty(t, gw.attempts)
}
