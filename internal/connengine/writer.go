package connengine

import (
	"context"

	alog "github.com/anacrolix/log"

	"github.com/dannyzb/filerelay/internal/queue"
)

// RunWriter drains the outbound queue onto the socket until the queue is
// closed (every producer is gone), a write fails, or ctx is cancelled
// because one of the sibling tasks finished first. Per §4.2 there are no
// retries and no reordering: the queue's FIFO order is the only contract.
func (c *Conn) RunWriter(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-c.Queue.Recv():
			if !ok {
				return nil
			}
			if err := c.writeFrame(frame); err != nil {
				c.Logger.WithDefaultLevel(alog.Debug).Printf("peer %s: write failed: %v", c.PeerID, err)
				return err
			}
		case <-c.Queue.Closed():
			// Drain whatever is already buffered before exiting, preserving FIFO.
			for {
				select {
				case frame, ok := <-c.Queue.Recv():
					if !ok {
						return nil
					}
					if err := c.writeFrame(frame); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}

func (c *Conn) writeFrame(f queue.Frame) error {
	switch f.Kind {
	case queue.Text:
		return c.Socket.WriteMessage(TextMessage, f.Data)
	case queue.Binary:
		return c.Socket.WriteMessage(BinaryMessage, f.Data)
	case queue.Ping:
		return c.Socket.WriteControl(PingMessage, f.Data, c.Now().Add(writeWait))
	case queue.Close:
		return c.Socket.WriteControl(CloseMessage, closePayload(f.CloseCode, f.CloseCause), c.Now().Add(writeWait))
	default:
		return nil
	}
}
