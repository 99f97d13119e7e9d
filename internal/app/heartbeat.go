package app

import (
	"context"
	"time"

	"github.com/five82/winloop/internal/loop"
)

// Heartbeat is the payload the heartbeat worker sends into the loop.
type Heartbeat struct {
	Seq int
	At  time.Time
}

// StartHeartbeat launches a background goroutine that sends a Heartbeat
// through proxy at a fixed cadence. It returns immediately and stops when ctx
// is done or the loop terminates.
func StartHeartbeat(ctx context.Context, proxy *loop.Proxy, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		seq := 0
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				seq++
				if err := proxy.Send(ctx, Heartbeat{Seq: seq, At: t}); err != nil {
					return
				}
			}
		}
	}()
}
