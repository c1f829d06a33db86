package connengine

import (
	"context"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/dannyzb/filerelay/internal/protocol"
	"github.com/dannyzb/filerelay/internal/queue"
)

// RunReader is the per-connection read loop described in SPEC_FULL.md §4.4.
// It emits the initial register frame, then dispatches every inbound frame
// until the peer closes, the socket errors, or the stop flag is set (by a
// terminate event or a failed enqueue anywhere in this connection).
func (c *Conn) RunReader(ctx context.Context) DisconnectReason {
	register := protocol.NewRegister(c.PeerID, c.nowUnix())
	c.enqueueLocal(ctx, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(register)})

	for {
		if c.stopped() {
			return Other
		}
		select {
		case <-ctx.Done():
			return Other
		default:
		}

		kind, data, err := c.Socket.ReadMessage()
		if err != nil {
			return c.classifyCloseErr(err)
		}

		switch kind {
		case TextMessage:
			ev, decodeErr := protocol.Decode(data)
			if decodeErr != nil {
				c.sendLocalError(ctx, protocol.ErrInvalidPayload, "failed to parse inbound message", decodeErr.Error())
				continue
			}
			c.dispatch(ctx, ev)
		case BinaryMessage:
			c.forwardBinary(ctx, data)
		case PongMessage:
			c.updatePong(c.Now())
		case CloseMessage:
			return reasonFromCloseReason(data)
		default:
			c.sendLocalError(ctx, protocol.ErrUnsupportedWsMessageType, "unsupported websocket frame type", "")
		}
	}
}

// forwardBinary relays a chunk verbatim to the currently paired recipient.
// No framing or header is added, matching §6 "Binary frames."
func (c *Conn) forwardBinary(ctx context.Context, data []byte) {
	recipient, ok := c.State.RecipientOf(c.PeerID)
	if !ok {
		c.sendLocalError(ctx, protocol.ErrActiveConnectionNotFound, "this connection is not a paired sender", "")
		return
	}
	if !c.enqueueTo(ctx, recipient, queue.Frame{Kind: queue.Binary, Data: data}) {
		c.sendLocalError(ctx, protocol.ErrRecipientDisconnected, "recipient is not connected", "")
	}
}

// classifyCloseErr maps a ReadMessage error to a DisconnectReason. gorilla
// surfaces a clean close as a *CloseError carrying the close frame's code
// and reason; anything else (socket reset, timeout, EOF) is Other.
func (c *Conn) classifyCloseErr(err error) DisconnectReason {
	if ce, ok := err.(*websocket.CloseError); ok {
		return reasonFromCloseReason([]byte(ce.Text))
	}
	return Other
}

// reasonFromCloseReason implements the case-insensitive "transfer completed"
// substring check from §4.4.
func reasonFromCloseReason(reason []byte) DisconnectReason {
	if strings.Contains(strings.ToLower(string(reason)), "transfer completed") {
		return TransferCompleted
	}
	return Other
}

