package loop

import (
	"context"
	"errors"

	"github.com/five82/winloop/internal/platform"
)

// ErrClosed is returned by Proxy.Send once the loop has terminated.
var ErrClosed = errors.New("event loop closed")

// Proxy lets goroutines other than the loop's send payloads to the handler.
// The payload arrives as a platform.UserEvent on the loop goroutine; senders
// never touch the window or the loop directly.
type Proxy struct {
	inbox  chan<- platform.Event
	closed <-chan struct{}
}

// Send queues payload for the handler. It blocks while the inbox is full and
// gives up when ctx is done or the loop terminates.
func (p *Proxy) Send(ctx context.Context, payload any) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	select {
	case p.inbox <- platform.UserEvent{Payload: payload}:
		return nil
	case <-p.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
