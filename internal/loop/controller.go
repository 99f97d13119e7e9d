package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/winloop/internal/lifecycle"
	"github.com/five82/winloop/internal/platform"
)

const defaultInboxSize = 64

// Handler receives every event except the owned window's close request.
// Returning platform.Exit terminates the loop.
type Handler func(platform.Event) platform.Directive

// Options configure a Controller.
type Options struct {
	Backend      platform.Backend
	ControlFlow  platform.ControlFlow
	PollInterval time.Duration // zero uses platform.DefaultPollInterval
	InboxSize    int           // zero uses 64
	Logger       *slog.Logger  // nil discards
}

// Reason records why the loop terminated.
type Reason int

const (
	ReasonCloseRequested Reason = iota
	ReasonHandlerExit
	ReasonCancelled
	ReasonBackendStopped
	ReasonAborted
)

func (r Reason) String() string {
	switch r {
	case ReasonCloseRequested:
		return "close requested"
	case ReasonHandlerExit:
		return "handler exit"
	case ReasonCancelled:
		return "cancelled"
	case ReasonBackendStopped:
		return "backend stopped"
	case ReasonAborted:
		return "aborted"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Termination summarises a finished run.
type Termination struct {
	Reason     Reason
	Dispatched int   // events handed to the dispatcher, including the close request
	Err        error // backend error, if the backend stopped on its own
}

// Controller owns one event loop and its single window, and drives them
// through the lifecycle.
type Controller struct {
	backend  platform.Backend
	flow     platform.ControlFlow
	interval time.Duration
	log      *slog.Logger

	machine lifecycle.Machine
	loop    platform.EventLoop
	window  platform.Window

	inbox     chan platform.Event
	closed    chan struct{}
	closeOnce sync.Once

	reason     Reason
	dispatched int
}

// New returns a controller in the Uninitialized state.
func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("loop controller requires a backend")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	size := opts.InboxSize
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Controller{
		backend:  opts.Backend,
		flow:     opts.ControlFlow,
		interval: opts.PollInterval,
		log:      logger.With(slog.String("component", "loop"), slog.String("backend", opts.Backend.Name())),
		inbox:    make(chan platform.Event, size),
		closed:   make(chan struct{}),
	}, nil
}

// Initialize constructs the event pump.
func (c *Controller) Initialize(ctx context.Context) error {
	if err := c.machine.Expect(lifecycle.Uninitialized, lifecycle.LoopCreated); err != nil {
		return err
	}
	loop, err := c.backend.Initialize(ctx)
	if err != nil {
		var initErr *platform.PlatformInitError
		if !errors.As(err, &initErr) {
			err = &platform.PlatformInitError{Backend: c.backend.Name(), Err: err}
		}
		c.log.LogAttrs(ctx, slog.LevelError, "event loop unavailable", slog.Any("error", err))
		return err
	}
	c.loop = loop
	c.advance(ctx, lifecycle.LoopCreated)
	return nil
}

// CreateWindow requests the controller's single window from the owned loop.
func (c *Controller) CreateWindow(attrs platform.WindowAttributes) (platform.Window, error) {
	if err := c.machine.Expect(lifecycle.LoopCreated, lifecycle.WindowCreated); err != nil {
		return nil, err
	}
	win, err := c.backend.CreateWindow(c.loop, attrs)
	if err != nil {
		var winErr *platform.WindowCreationError
		if !errors.As(err, &winErr) {
			err = &platform.WindowCreationError{Backend: c.backend.Name(), Attributes: attrs, Err: err}
		}
		c.log.LogAttrs(context.Background(), slog.LevelError, "window creation failed", slog.Any("error", err))
		return nil, err
	}
	c.window = win
	c.advance(context.Background(), lifecycle.WindowCreated)
	c.log.LogAttrs(context.Background(), slog.LevelDebug, "window created",
		slog.Uint64("window", uint64(win.ID())),
		slog.String("title", attrs.Title),
		slog.Int("width", attrs.Width),
		slog.Int("height", attrs.Height),
	)
	return win, nil
}

// Run hands the calling goroutine to the backend's dispatch loop and returns
// once the controller has terminated. The window is released before Run
// returns. A nil handler ignores every forwarded event.
func (c *Controller) Run(ctx context.Context, handler Handler) (Termination, error) {
	if err := c.machine.Expect(lifecycle.WindowCreated, lifecycle.Running); err != nil {
		return Termination{}, err
	}
	if handler == nil {
		handler = func(platform.Event) platform.Directive { return platform.Continue }
	}
	c.advance(ctx, lifecycle.Running)

	cfg := platform.RunConfig{
		ControlFlow:  c.flow,
		PollInterval: c.interval,
		Inbox:        c.inbox,
	}
	c.log.LogAttrs(ctx, slog.LevelInfo, "running",
		slog.String("control_flow", c.flow.String()),
		slog.Duration("poll_interval", cfg.Interval()),
	)

	runErr := c.backend.Run(ctx, c.loop, cfg, c.dispatcher(ctx, handler))

	term := Termination{Dispatched: c.dispatched}
	if c.terminate(ctx, ReasonBackendStopped) {
		term.Err = runErr
		c.log.LogAttrs(ctx, slog.LevelWarn, "backend stopped dispatching", slog.Any("error", runErr))
	} else if runErr != nil {
		c.log.LogAttrs(ctx, slog.LevelDebug, "backend returned after termination", slog.Any("error", runErr))
	}
	term.Reason = c.reason
	c.release(ctx)

	c.log.LogAttrs(ctx, slog.LevelInfo, "terminated",
		slog.String("reason", term.Reason.String()),
		slog.Int("dispatched", term.Dispatched),
	)
	return term, nil
}

// Close aborts a controller that has not run, releasing its window. It is a
// no-op once the controller has terminated.
func (c *Controller) Close() error {
	if c.machine.State() == lifecycle.Running {
		return &lifecycle.TransitionError{From: lifecycle.Running, To: lifecycle.Terminated}
	}
	if c.terminate(context.Background(), ReasonAborted) {
		return c.release(context.Background())
	}
	return nil
}

// Proxy returns the channel through which other goroutines reach the handler.
func (c *Controller) Proxy() *Proxy {
	return &Proxy{inbox: c.inbox, closed: c.closed}
}

// State returns the current lifecycle state.
func (c *Controller) State() lifecycle.State { return c.machine.State() }

// Snapshot returns a copy of the lifecycle history.
func (c *Controller) Snapshot() lifecycle.Snapshot { return c.machine.Snapshot() }

// Window returns the owned window, or nil before CreateWindow succeeds.
func (c *Controller) Window() platform.Window { return c.window }

func (c *Controller) dispatcher(ctx context.Context, handler Handler) platform.Dispatcher {
	owned := c.window.ID()
	return func(ev platform.Event) platform.Directive {
		if c.machine.State() != lifecycle.Running {
			return platform.Exit
		}
		if ctx.Err() != nil {
			c.terminate(ctx, ReasonCancelled)
			return platform.Exit
		}
		c.dispatched++

		if cr, ok := ev.(platform.CloseRequested); ok && cr.Window == owned {
			c.terminate(ctx, ReasonCloseRequested)
			return platform.Exit
		}

		if c.log.Enabled(ctx, slog.LevelDebug) {
			c.log.LogAttrs(ctx, slog.LevelDebug, "event", slog.String("event", platform.Describe(ev)))
		}
		if handler(ev) == platform.Exit {
			c.terminate(ctx, ReasonHandlerExit)
			return platform.Exit
		}
		return platform.Continue
	}
}

func (c *Controller) advance(ctx context.Context, to lifecycle.State) {
	if err := c.machine.Advance(to); err != nil {
		// Every caller checked Expect first, so this is a controller bug.
		panic(err)
	}
	c.log.LogAttrs(ctx, slog.LevelDebug, "lifecycle", slog.String("state", to.String()))
}

func (c *Controller) terminate(ctx context.Context, reason Reason) bool {
	if !c.machine.Terminate() {
		return false
	}
	c.reason = reason
	c.closeOnce.Do(func() { close(c.closed) })
	c.log.LogAttrs(ctx, slog.LevelDebug, "lifecycle",
		slog.String("state", lifecycle.Terminated.String()),
		slog.String("reason", reason.String()),
	)
	return true
}

func (c *Controller) release(ctx context.Context) error {
	if c.window == nil {
		return nil
	}
	if err := c.window.Release(); err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "release window", slog.Any("error", err))
		return fmt.Errorf("release window: %w", err)
	}
	return nil
}
