package connengine

import (
	"context"

	"github.com/dannyzb/filerelay/internal/metrics"
	"github.com/dannyzb/filerelay/internal/protocol"
	"github.com/dannyzb/filerelay/internal/queue"
)

// sendLocalError enqueues an error frame on this connection's own queue.
// Per §7, routing errors are always local to the originator and never
// forwarded to a counterparty, and they never mutate state.
func (c *Conn) sendLocalError(ctx context.Context, code protocol.ErrorCode, message, details string) {
	metrics.RoutingErrors.WithLabelValues(string(code)).Inc()
	frame := protocol.NewErrorFrame(code, message, details, c.nowUnix())
	c.enqueueLocal(ctx, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(frame)})
}

// enqueueLocal sends f on this connection's own outbound queue. A failure
// here means this connection's own writer is gone: set the stop flag so the
// reader loop exits on its next iteration (§4.4 enqueue-failure policy).
func (c *Conn) enqueueLocal(ctx context.Context, f queue.Frame) {
	if err := c.Queue.Send(ctx, f); err != nil {
		c.RequestStop()
	}
}

// enqueueTo sends f on target's outbound queue, looked up fresh from shared
// state. ok is false if target has no live connection (the counterparty's
// queue is gone); the caller turns that into the appropriate wire error. A
// send failure (counterparty's writer dropped an already-full queue) also
// sets this connection's stop flag, same as enqueueLocal: per §4.4 we can't
// distinguish "my queue died" from "I chose to give up forwarding", so
// either failure mode tears this connection down rather than silently
// dropping the frame.
func (c *Conn) enqueueTo(ctx context.Context, target string, f queue.Frame) (ok bool) {
	q, found := c.State.GetQueue(target)
	if !found {
		return false
	}
	if err := q.Send(ctx, f); err != nil {
		c.RequestStop()
		return false
	}
	switch f.Kind {
	case queue.Text:
		metrics.FramesForwarded.WithLabelValues("text").Inc()
	case queue.Binary:
		metrics.FramesForwarded.WithLabelValues("binary").Inc()
		metrics.BytesForwarded.Add(float64(len(f.Data)))
	}
	return true
}

// self resolves an optional payload id to this connection's own peer id
// when absent, matching the wire protocol's self-defaulting convention
// (§4.4 "any absent id in a payload is treated as the current connection's
// peer_id").
func (c *Conn) self(id *string) string {
	if id == nil || *id == "" {
		return c.PeerID
	}
	return *id
}
