package connengine

import (
	"context"
	"testing"
	"time"

	alog "github.com/anacrolix/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannyzb/filerelay/internal/queue"
	"github.com/dannyzb/filerelay/internal/relaystate"
)

func newHeartbeatConn(t *testing.T, now func() time.Time) (*Conn, *queue.Queue) {
	t.Helper()
	state := relaystate.New()
	q := queue.New()
	state.AddPeer("A", q)
	return New("A", nil, q, state, alog.Default, now), q
}

func TestSinceLastPongReflectsInjectedClock(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := start
	c, _ := newHeartbeatConn(t, func() time.Time { return clock })

	assert.Equal(t, time.Duration(0), c.sinceLastPong())

	clock = start.Add(12 * time.Second)
	assert.Equal(t, 12*time.Second, c.sinceLastPong())
}

func TestUpdatePongResetsElapsed(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := start
	c, _ := newHeartbeatConn(t, func() time.Time { return clock })

	clock = start.Add(20 * time.Second)
	c.updatePong(clock)
	assert.Equal(t, time.Duration(0), c.sinceLastPong())
}

// TestRunHeartbeatExitsOnSilentTimeout drives the real 5s ticker but fakes
// the clock so the very first tick already observes an elapsed time past
// ClientTimeout, exercising the exit-on-timeout path without waiting 30s.
func TestRunHeartbeatExitsOnSilentTimeout(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := start
	c, _ := newHeartbeatConn(t, func() time.Time { return clock })
	// New stamped lastPong at start; move the clock past the timeout after.
	clock = start.Add(ClientTimeout + time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), PingInterval+2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.RunHeartbeat(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("RunHeartbeat did not exit after the silent-peer timeout")
	}
}

func TestRunHeartbeatSendsPingWhenPeerIsResponsive(t *testing.T) {
	clock := time.Unix(1000, 0)
	c, q := newHeartbeatConn(t, func() time.Time { return clock })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.RunHeartbeat(ctx) }()

	select {
	case f := <-q.Recv():
		require.Equal(t, queue.Ping, f.Kind)
	case <-time.After(PingInterval + 2*time.Second):
		t.Fatal("heartbeat never sent a ping frame")
	}

	cancel()
	<-done
}

func TestRunHeartbeatExitsWhenQueueClosed(t *testing.T) {
	clock := time.Unix(1000, 0)
	c, q := newHeartbeatConn(t, func() time.Time { return clock })
	q.Close()

	done := make(chan error, 1)
	go func() { done <- c.RunHeartbeat(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(PingInterval + 2*time.Second):
		t.Fatal("heartbeat did not exit after its queue closed")
	}
}
