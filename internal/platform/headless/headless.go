// Package headless is a display-less backend that pumps a scripted list of
// events. Tests use it to drive the controller; CI uses it for smoke runs.
package headless

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/winloop/internal/platform"
)

// Name is the backend name used in config and errors.
const Name = "headless"

// FirstWindow is the ID of the first window a headless loop creates.
const FirstWindow platform.WindowID = 1

var (
	errNoWindow = errors.New("run without a window")
	errConsumed = errors.New("event loop already ran")
)

// Backend pumps Events in order after Resumed, then behaves like an idle
// platform: Wait blocks for inbox events or cancellation, Poll adds a redraw
// every tick.
type Backend struct {
	Events []platform.Event
	// NoDisplay makes Initialize fail as if no display server were reachable.
	NoDisplay bool
	// FailWindow, when set, is returned as the cause of window creation failure.
	FailWindow error

	mu       sync.Mutex
	loop     *eventLoop
	released []platform.WindowID
}

type eventLoop struct {
	window *window
	nextID platform.WindowID
	ran    bool
}

func (*eventLoop) Backend() string { return Name }

type window struct {
	id      platform.WindowID
	attrs   platform.WindowAttributes
	backend *Backend

	once sync.Once
}

func (w *window) ID() platform.WindowID                  { return w.id }
func (w *window) Attributes() platform.WindowAttributes { return w.attrs }

func (w *window) Release() error {
	w.once.Do(func() {
		w.backend.mu.Lock()
		w.backend.released = append(w.backend.released, w.id)
		w.backend.mu.Unlock()
	})
	return nil
}

// Name implements platform.Backend.
func (b *Backend) Name() string { return Name }

// Initialize implements platform.Backend.
func (b *Backend) Initialize(ctx context.Context) (platform.EventLoop, error) {
	if err := ctx.Err(); err != nil {
		return nil, &platform.PlatformInitError{Backend: Name, Err: err}
	}
	if b.NoDisplay {
		return nil, &platform.PlatformInitError{Backend: Name, Err: platform.ErrNoDisplay}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loop != nil {
		return nil, &platform.PlatformInitError{Backend: Name, Err: platform.ErrLoopExists}
	}
	b.loop = &eventLoop{nextID: FirstWindow}
	return b.loop, nil
}

// CreateWindow implements platform.Backend.
func (b *Backend) CreateWindow(loop platform.EventLoop, attrs platform.WindowAttributes) (platform.Window, error) {
	fail := func(err error) error {
		return &platform.WindowCreationError{Backend: Name, Attributes: attrs, Err: err}
	}

	l, err := b.own(loop)
	if err != nil {
		return nil, fail(err)
	}
	if err := attrs.Validate(); err != nil {
		return nil, fail(err)
	}
	if b.FailWindow != nil {
		return nil, fail(b.FailWindow)
	}
	if l.window != nil {
		return nil, fail(platform.ErrWindowExists)
	}

	l.window = &window{id: l.nextID, attrs: attrs, backend: b}
	l.nextID++
	return l.window, nil
}

// Run implements platform.Backend.
func (b *Backend) Run(ctx context.Context, loop platform.EventLoop, cfg platform.RunConfig, dispatch platform.Dispatcher) error {
	l, err := b.own(loop)
	if err != nil {
		return err
	}
	if l.ran {
		return errConsumed
	}
	if l.window == nil {
		return errNoWindow
	}
	l.ran = true

	if dispatch(platform.Resumed{}) == platform.Exit {
		return nil
	}
	for _, ev := range b.Events {
		if dispatch(ev) == platform.Exit {
			return nil
		}
	}

	var tick <-chan time.Time
	if cfg.ControlFlow == platform.Poll {
		ticker := time.NewTicker(cfg.Interval())
		defer ticker.Stop()
		tick = ticker.C
	}

	done := ctx.Done()
	inbox := cfg.Inbox
	for {
		var ev platform.Event
		select {
		case <-done:
			// Deliver a single wake; the dispatcher decides what cancellation means.
			done = nil
			ev = platform.Wake{}
		case msg, ok := <-inbox:
			if !ok {
				inbox = nil
				continue
			}
			ev = msg
		case <-tick:
			ev = platform.RedrawRequested{Window: l.window.id}
		}
		if dispatch(ev) == platform.Exit {
			return nil
		}
		if done == nil && inbox == nil && tick == nil {
			return fmt.Errorf("headless loop idle after cancellation")
		}
	}
}

// Released returns the IDs of windows released so far, in release order.
func (b *Backend) Released() []platform.WindowID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.WindowID(nil), b.released...)
}

func (b *Backend) own(loop platform.EventLoop) (*eventLoop, error) {
	l, ok := loop.(*eventLoop)
	if !ok || l == nil {
		return nil, platform.ErrForeignLoop
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if l != b.loop {
		return nil, platform.ErrForeignLoop
	}
	return l, nil
}
