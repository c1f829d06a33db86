package connengine

import (
	"context"

	alog "github.com/anacrolix/log"
	"golang.org/x/sync/errgroup"

	"github.com/dannyzb/filerelay/internal/metrics"
	"github.com/dannyzb/filerelay/internal/protocol"
	"github.com/dannyzb/filerelay/internal/queue"
)

// Run starts the reader, writer and heartbeat tasks and blocks until the
// connection is fully torn down: whichever task finishes first cancels the
// shared context the other two observe at their next suspension point
// (golang.org/x/sync/errgroup, a direct teacher dependency, gives exactly
// this "first return wins" semantics). Run then performs peer-disconnect
// notification and cleanup exactly once before returning.
func (c *Conn) Run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var reason DisconnectReason
	g, gctx := errgroup.WithContext(ctx)

	// ReadMessage does not observe gctx: closing the socket once any task has
	// finished is what releases a reader blocked in a socket read.
	go func() {
		<-gctx.Done()
		_ = c.Socket.Close()
	}()

	g.Go(func() error {
		reason = c.RunReader(gctx)
		return errDone
	})
	g.Go(func() error {
		err := c.RunWriter(gctx)
		return firstNonNil(err, errDone)
	})
	g.Go(func() error {
		if err := c.RunHeartbeat(gctx); err != nil {
			return err
		}
		return errDone
	})

	// errgroup cancels gctx the moment any goroutine returns (error or not,
	// since we always return a non-nil sentinel). Wait absorbs that
	// sentinel; a genuine failure from RunWriter still propagates through it
	// but we only use Wait to block until all three have observed
	// cancellation and exited.
	_ = g.Wait()

	c.teardown(reason)
}

// errDone is a sentinel "I finished" error so errgroup always cancels gctx
// on the first task to return, whether or not that task hit a real failure.
var errDone = &doneSentinel{}

type doneSentinel struct{}

func (*doneSentinel) Error() string { return "connengine: task finished" }

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// teardown runs peer-disconnect notification (unless the reader reported a
// clean transfer-completed close) and cleanup, exactly once. It is called
// only from Run, which itself only proceeds here after all three tasks have
// exited, so no extra synchronization against concurrent teardown is needed.
func (c *Conn) teardown(reason DisconnectReason) {
	c.Queue.Close()

	if reason != TransferCompleted {
		c.notifyPeerDisconnect()
	}

	c.State.ClearMetadata(c.PeerID)
	c.State.RemovePeer(c.PeerID)
}

// notifyPeerDisconnect implements §4.5 step 3: best-effort notification of
// whichever peer was on the other end of this connection's pairing, from
// either role.
func (c *Conn) notifyPeerDisconnect() {
	if recipient, ok := c.State.RecipientOf(c.PeerID); ok {
		// RemovePeer (called next in teardown) deletes this pairing since
		// pairs is keyed by sender; account for it here where the sender
		// disconnect is actually detected.
		metrics.ActivePairings.Dec()
		msg := protocol.NewPeerDisconnected(c.PeerID, "sender", c.nowUnix())
		if !c.tryNotify(recipient, msg) {
			c.Logger.WithDefaultLevel(alog.Debug).Printf(
				"peer %s: could not notify recipient %s of disconnect", c.PeerID, recipient)
		}
		return
	}

	if sender, ok := c.State.SenderOf(c.PeerID); ok {
		c.State.Unpair(sender)
		metrics.ActivePairings.Dec()
		msg := protocol.NewPeerDisconnected(c.PeerID, "recipient", c.nowUnix())
		if !c.tryNotify(sender, msg) {
			c.Logger.WithDefaultLevel(alog.Debug).Printf(
				"peer %s: could not notify sender %s of disconnect", c.PeerID, sender)
		}
	}
}

// tryNotify is a non-blocking best-effort send, used only for
// peer-disconnect notification: this connection is already torn down, so it
// must never suspend waiting on a possibly-full counterparty queue.
func (c *Conn) tryNotify(target string, msg protocol.PeerDisconnected) bool {
	q, ok := c.State.GetQueue(target)
	if !ok {
		return false
	}
	return q.TrySend(queue.Frame{Kind: queue.Text, Data: protocol.Marshal(msg)}) == nil
}
