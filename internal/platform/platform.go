package platform

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultPollInterval is the redraw cadence used by the Poll policy when no
// interval is configured.
const DefaultPollInterval = 16 * time.Millisecond

// Backend is the capability a windowing system exposes to the loop controller.
// Implementations hand out at most one EventLoop and at most one Window per
// loop, and never dispatch events outside Run.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Initialize constructs the event pump. It returns a *PlatformInitError
	// when the host display system is unavailable.
	Initialize(ctx context.Context) (EventLoop, error)

	// CreateWindow requests the single window owned by loop. It returns a
	// *WindowCreationError on failure.
	CreateWindow(loop EventLoop, attrs WindowAttributes) (Window, error)

	// Run blocks the calling goroutine in the dispatch loop until dispatch
	// returns Exit or the pump dies. When ctx is done the backend delivers a
	// Wake event so the dispatcher can observe the cancellation.
	Run(ctx context.Context, loop EventLoop, cfg RunConfig, dispatch Dispatcher) error
}

// EventLoop is an opaque handle to a backend's event pump.
type EventLoop interface {
	Backend() string
}

// WindowID identifies a window within one event loop.
type WindowID uint64

// Window is an opaque handle to a platform-managed display surface.
type Window interface {
	ID() WindowID
	Attributes() WindowAttributes
	// Release destroys the surface. Calling it more than once is a no-op.
	Release() error
}

// Directive tells the dispatch loop whether to keep going.
type Directive int

const (
	Continue Directive = iota
	Exit
)

func (d Directive) String() string {
	if d == Exit {
		return "exit"
	}
	return "continue"
}

// Dispatcher receives every event a backend pumps while running.
type Dispatcher func(Event) Directive

// RunConfig carries the control-flow policy and the user event inbox into Run.
type RunConfig struct {
	ControlFlow  ControlFlow
	PollInterval time.Duration
	// Inbox delivers events from other goroutines. Backends forward them to
	// the dispatcher on the Run goroutine. May be nil.
	Inbox <-chan Event
}

// Interval returns the poll cadence, falling back to DefaultPollInterval.
func (c RunConfig) Interval() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.PollInterval
}

// ControlFlow selects how the dispatch loop waits between events.
type ControlFlow int

const (
	// Wait parks the loop until the OS delivers the next event.
	Wait ControlFlow = iota
	// Poll keeps the loop busy and requests a redraw every poll tick.
	Poll
)

func (c ControlFlow) String() string {
	switch c {
	case Poll:
		return "poll"
	default:
		return "wait"
	}
}

// ParseControlFlow accepts "wait" or "poll" (case-insensitive). Empty selects Wait.
func ParseControlFlow(s string) (ControlFlow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wait":
		return Wait, nil
	case "poll":
		return Poll, nil
	default:
		return Wait, fmt.Errorf("unknown control flow %q (want wait or poll)", s)
	}
}

// WindowAttributes describes the requested window. Zero sizes and an empty
// title let the platform pick.
type WindowAttributes struct {
	Title       string
	Width       int
	Height      int
	Resizable   bool
	Decorations bool
	Visible     bool
}

// DefaultWindowAttributes returns an untitled, platform-sized, decorated,
// resizable and visible window.
func DefaultWindowAttributes() WindowAttributes {
	return WindowAttributes{
		Resizable:   true,
		Decorations: true,
		Visible:     true,
	}
}

// Validate reports attribute combinations no backend can satisfy.
func (a WindowAttributes) Validate() error {
	if a.Width < 0 || a.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidAttributes, a.Width, a.Height)
	}
	return nil
}
