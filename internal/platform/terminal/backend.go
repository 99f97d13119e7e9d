// Package terminal uses the terminal as the display surface. The event pump is
// a Bubble Tea program and the window is the alternate screen.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/five82/winloop/internal/platform"
)

// Name is the backend name used in config and errors.
const Name = "terminal"

var errQuitWithoutExit = errors.New("terminal program quit before the loop exited")

// Backend drives a Bubble Tea program. The zero value uses stdin, stdout and
// the default theme.
type Backend struct {
	In    *os.File
	Out   *os.File
	Theme string

	mu   sync.Mutex
	loop *eventLoop
}

type eventLoop struct {
	in, out *os.File
	window  *window
	ran     bool
}

func (*eventLoop) Backend() string { return Name }

type window struct {
	id    platform.WindowID
	attrs platform.WindowAttributes

	mu       sync.Mutex
	released bool
}

func (w *window) ID() platform.WindowID                  { return w.id }
func (w *window) Attributes() platform.WindowAttributes { return w.attrs }

// Release marks the surface gone. The alternate screen itself is restored by
// the program when Run returns.
func (w *window) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.released = true
	return nil
}

// Name implements platform.Backend.
func (b *Backend) Name() string { return Name }

// Initialize implements platform.Backend. It fails with platform.ErrNoDisplay
// unless both ends of the program are attached to a terminal.
func (b *Backend) Initialize(ctx context.Context) (platform.EventLoop, error) {
	fail := func(err error) error {
		return &platform.PlatformInitError{Backend: Name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}

	in, out := b.In, b.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	for _, f := range []*os.File{in, out} {
		if !isTerminal(f) {
			return nil, fail(fmt.Errorf("%w: %s is not a terminal", platform.ErrNoDisplay, f.Name()))
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loop != nil {
		return nil, fail(platform.ErrLoopExists)
	}
	b.loop = &eventLoop{in: in, out: out}
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
	if l.window != nil {
		return nil, fail(platform.ErrWindowExists)
	}
	l.window = &window{id: 1, attrs: attrs}
	return l.window, nil
}

// Run implements platform.Backend.
func (b *Backend) Run(ctx context.Context, loop platform.EventLoop, cfg platform.RunConfig, dispatch platform.Dispatcher) error {
	l, err := b.own(loop)
	if err != nil {
		return err
	}
	if l.window == nil {
		return fmt.Errorf("terminal run without a window")
	}
	if l.ran {
		return fmt.Errorf("terminal event loop already ran")
	}
	l.ran = true

	m := newModel(l.window, cfg, dispatch, GetTheme(b.Theme))
	p := tea.NewProgram(m,
		tea.WithInput(l.in),
		tea.WithOutput(l.out),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		// Signals reach us through ctx; the dispatcher decides what they mean.
		tea.WithoutSignalHandler(),
	)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			p.Send(wakeMsg{})
		case <-stop:
		}
	}()
	if cfg.Inbox != nil {
		go func() {
			for {
				select {
				case ev, ok := <-cfg.Inbox:
					if !ok {
						return
					}
					p.Send(inboxMsg{event: ev})
				case <-stop:
					return
				}
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal program: %w", err)
	}
	if !m.stats.exited {
		return errQuitWithoutExit
	}
	return nil
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

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
