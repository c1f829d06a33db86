package connengine

import (
	"testing"
	"time"

	alog "github.com/anacrolix/log"
	"github.com/stretchr/testify/require"

	"github.com/dannyzb/filerelay/internal/queue"
	"github.com/dannyzb/filerelay/internal/relaystate"
)

// TestNewRegistersPongHandlerOnSocket guards against the regression where
// lastPong was only ever set at construction time: gorilla/websocket never
// surfaces a real Pong frame through ReadMessage, it only invokes whatever
// handler was passed to SetPongHandler. New must register one against
// whatever Now reports, not just trust a synthesized ReadMessage result.
func TestNewRegistersPongHandlerOnSocket(t *testing.T) {
	state := relaystate.New()
	start := time.Unix(1000, 0)
	clock := start
	q := queue.New()
	state.AddPeer("A", q)
	sock := newFakeSocket()

	c := New("A", sock, q, state, alog.Default, func() time.Time { return clock })

	require.NotNil(t, sock.pongHandler, "New must call sock.SetPongHandler")

	clock = start.Add(20 * time.Second)
	require.NoError(t, sock.pongHandler(""))
	require.Equal(t, time.Duration(0), c.sinceLastPong())
}

// TestNewToleratesNilSocket covers routing-only tests that construct a Conn
// with a nil Socket (they never touch the wire), which must not panic when
// New tries to wire up the pong handler.
func TestNewToleratesNilSocket(t *testing.T) {
	state := relaystate.New()
	q := queue.New()
	state.AddPeer("A", q)
	require.NotPanics(t, func() {
		New("A", nil, q, state, alog.Default, nil)
	})
}
