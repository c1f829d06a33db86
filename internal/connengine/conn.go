// Package connengine implements the three cooperating tasks that drive a
// single relay WebSocket connection (reader, writer, heartbeat), the
// routing state machine the reader executes, and the supervisor that waits
// for any one of them to finish and runs peer-disconnect notification and
// cleanup. This is the hard concurrency core described in SPEC_FULL.md §2.
package connengine

import (
	"time"

	"github.com/anacrolix/chansync"
	alog "github.com/anacrolix/log"
	"github.com/anacrolix/sync"

	"github.com/dannyzb/filerelay/internal/queue"
	"github.com/dannyzb/filerelay/internal/relaystate"
)

// PingInterval and ClientTimeout are the heartbeat constants from §4.3.
const (
	PingInterval  = 5 * time.Second
	ClientTimeout = 30 * time.Second
)

// DisconnectReason explains why a connection's reader loop returned.
type DisconnectReason int

const (
	Other DisconnectReason = iota
	TransferCompleted
)

// Socket is the minimal duplex WebSocket surface the engine needs. The
// concrete implementation (gorilla/websocket) is wired in by internal/httpapi;
// the core never constructs one itself, matching SPEC_FULL.md §1's "the core
// consumes from them only: a ready-to-use duplex WebSocket object."
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// WebSocket frame type constants, matching gorilla/websocket's values so the
// httpapi adapter can pass them straight through.
const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)

// Conn is one relay connection: its identity, socket, outbound queue, and
// the bits of state shared by its three tasks.
type Conn struct {
	PeerID string
	Socket Socket
	Queue  *queue.Queue
	State  *relaystate.State
	Logger alog.Logger
	Now    func() time.Time

	stopFlag chansync.SetOnce

	pongMu   sync.Mutex
	lastPong time.Time
}

// New builds a Conn ready to have its three tasks started. The queue is
// already registered in state by the caller (the upgrade handler), matching
// dependency order: RelayState exists before the queue/codec layer runs.
func New(peerID string, sock Socket, q *queue.Queue, state *relaystate.State, logger alog.Logger, now func() time.Time) *Conn {
	if now == nil {
		now = time.Now
	}
	c := &Conn{
		PeerID: peerID,
		Socket: sock,
		Queue:  q,
		State:  state,
		Logger: logger,
		Now:    now,
	}
	c.pongMu.Lock()
	c.lastPong = now()
	c.pongMu.Unlock()

	// gorilla/websocket's default pong handler silently consumes Pong
	// control frames and never surfaces them through ReadMessage, so the
	// reader's own PongMessage case (reader.go) never fires against a real
	// socket. Registering here, rather than requiring every Socket caller
	// to remember to, is what actually keeps lastPong current.
	if sock != nil {
		sock.SetPongHandler(func(string) error {
			c.updatePong(c.Now())
			return nil
		})
	}
	return c
}

// RequestStop sets the shared stop flag; the reader observes this at the
// top of its next loop iteration and exits with DisconnectReason Other.
func (c *Conn) RequestStop() {
	c.stopFlag.Set()
}

func (c *Conn) stopped() bool {
	return c.stopFlag.IsSet()
}

func (c *Conn) updatePong(t time.Time) {
	c.pongMu.Lock()
	c.lastPong = t
	c.pongMu.Unlock()
}

func (c *Conn) sinceLastPong() time.Duration {
	c.pongMu.Lock()
	last := c.lastPong
	c.pongMu.Unlock()
	return c.Now().Sub(last)
}

func (c *Conn) nowUnix() int64 {
	return c.Now().Unix()
}
