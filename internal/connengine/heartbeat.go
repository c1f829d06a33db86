package connengine

import (
	"context"
	"time"

	alog "github.com/anacrolix/log"

	"github.com/dannyzb/filerelay/internal/queue"
)

// RunHeartbeat sends periodic pings and watches the last-pong timestamp,
// which New's SetPongHandler registration keeps current as the peer's
// socket answers each ping. It returns (triggering teardown via the
// supervisor) once the peer has been silent past ClientTimeout, or once it
// can no longer enqueue a ping because the queue has been closed.
func (c *Conn) RunHeartbeat(ctx context.Context) error {
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			elapsed := c.sinceLastPong()
			if elapsed > ClientTimeout {
				c.Logger.WithDefaultLevel(alog.Warning).Printf(
					"peer %s: silent for %s, exceeding client timeout %s", c.PeerID, elapsed, ClientTimeout)
				return nil
			}
			if elapsed > ClientTimeout/2 {
				c.Logger.WithDefaultLevel(alog.Warning).Printf(
					"peer %s: no pong in %s, approaching client timeout", c.PeerID, elapsed)
			}
			if err := c.Queue.Send(ctx, queue.Frame{Kind: queue.Ping}); err != nil {
				return nil
			}
		}
	}
}
