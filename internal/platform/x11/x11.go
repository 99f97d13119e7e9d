// Package x11 opens a real desktop window through the shiny driver.
package x11

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/five82/winloop/internal/platform"
)

// Name is the backend name used in config and errors.
const Name = "x11"

var defaultBackground = color.RGBA{R: 0x19, G: 0x23, B: 0x30, A: 0xff}

// Backend opens one shiny screen and one window on it.
type Backend struct {
	// Background fills the window on every redraw. Nil uses a dark slate.
	Background color.Color

	mu   sync.Mutex
	loop *eventLoop
}

type eventLoop struct {
	screen screen.Screen
	// done releases the driver goroutine, which keeps the X connection alive.
	done     chan struct{}
	doneOnce sync.Once
	window   *window
	ran      bool
}

func (*eventLoop) Backend() string { return Name }

func (l *eventLoop) shutdown() {
	l.doneOnce.Do(func() { close(l.done) })
}

type window struct {
	id    platform.WindowID
	attrs platform.WindowAttributes
	sw    screen.Window
	loop  *eventLoop
	size  image.Point

	once sync.Once
}

func (w *window) ID() platform.WindowID                  { return w.id }
func (w *window) Attributes() platform.WindowAttributes { return w.attrs }

// Release destroys the X window and ends the screen session.
func (w *window) Release() error {
	w.once.Do(func() {
		w.sw.Release()
		w.loop.shutdown()
	})
	return nil
}

// Events injected into the shiny deque from other goroutines.
type (
	tickEvent  struct{}
	wakeEvent  struct{}
	inboxEvent struct{ event platform.Event }
)

// Name implements platform.Backend.
func (b *Backend) Name() string { return Name }

// Initialize implements platform.Backend. The X server is probed before the
// driver starts because the driver treats connection failures as fatal.
func (b *Backend) Initialize(ctx context.Context) (platform.EventLoop, error) {
	fail := func(err error) error {
		return &platform.PlatformInitError{Backend: Name, Err: err}
	}

	b.mu.Lock()
	exists := b.loop != nil
	b.mu.Unlock()
	if exists {
		return nil, fail(platform.ErrLoopExists)
	}

	if err := probe(); err != nil {
		return nil, fail(err)
	}

	l := &eventLoop{done: make(chan struct{})}
	screens := make(chan screen.Screen, 1)
	go driver.Main(func(s screen.Screen) {
		screens <- s
		<-l.done
	})

	select {
	case s := <-screens:
		l.screen = s
	case <-ctx.Done():
		l.shutdown()
		return nil, fail(ctx.Err())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loop != nil {
		l.shutdown()
		return nil, fail(platform.ErrLoopExists)
	}
	b.loop = l
	return l, nil
}

func probe() error {
	if strings.TrimSpace(os.Getenv("DISPLAY")) == "" {
		return fmt.Errorf("%w: DISPLAY is not set", platform.ErrNoDisplay)
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("%w: %v", platform.ErrNoDisplay, err)
	}
	conn.Close()
	return nil
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

	sw, err := l.screen.NewWindow(&screen.NewWindowOptions{
		Width:  attrs.Width,
		Height: attrs.Height,
		Title:  attrs.Title,
	})
	if err != nil {
		return nil, fail(err)
	}
	l.window = &window{id: 1, attrs: attrs, sw: sw, loop: l}
	return l.window, nil
}

// Run implements platform.Backend.
func (b *Backend) Run(ctx context.Context, loop platform.EventLoop, cfg platform.RunConfig, dispatch platform.Dispatcher) error {
	l, err := b.own(loop)
	if err != nil {
		return err
	}
	if l.window == nil {
		return fmt.Errorf("x11 run without a window")
	}
	if l.ran {
		return fmt.Errorf("x11 event loop already ran")
	}
	l.ran = true
	w := l.window

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			w.sw.Send(wakeEvent{})
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
					w.sw.Send(inboxEvent{event: ev})
				case <-stop:
					return
				}
			}
		}()
	}
	if cfg.ControlFlow == platform.Poll {
		go func() {
			ticker := time.NewTicker(cfg.Interval())
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					w.sw.Send(tickEvent{})
				case <-stop:
					return
				}
			}
		}()
	}

	if dispatch(platform.Resumed{}) == platform.Exit {
		return nil
	}
	for {
		e := w.sw.NextEvent()
		if se, ok := e.(size.Event); ok {
			w.size = image.Pt(se.WidthPx, se.HeightPx)
		}
		ev := translate(w.id, e)
		if ev == nil {
			continue
		}
		if _, ok := ev.(platform.RedrawRequested); ok {
			b.clear(w)
		}
		if dispatch(ev) == platform.Exit {
			return nil
		}
	}
}

// clear fills the surface with the background and publishes it.
func (b *Backend) clear(w *window) {
	if w.size == (image.Point{}) {
		return
	}
	bg := b.Background
	if bg == nil {
		bg = defaultBackground
	}
	w.sw.Fill(image.Rectangle{Max: w.size}, bg, screen.Src)
	w.sw.Publish()
}

// translate maps a shiny event onto the platform vocabulary. It returns nil
// for events the loop does not surface.
func translate(id platform.WindowID, e any) platform.Event {
	switch e := e.(type) {
	case lifecycle.Event:
		if e.To == lifecycle.StageDead {
			return platform.CloseRequested{Window: id}
		}
		switch e.Crosses(lifecycle.StageFocused) {
		case lifecycle.CrossOn:
			return platform.Focused{Window: id, Focused: true}
		case lifecycle.CrossOff:
			return platform.Focused{Window: id, Focused: false}
		}
	case size.Event:
		return platform.Resized{Window: id, Width: e.WidthPx, Height: e.HeightPx}
	case paint.Event, tickEvent:
		return platform.RedrawRequested{Window: id}
	case key.Event:
		if e.Direction == key.DirPress {
			return platform.KeyPressed{Window: id, Key: keyName(e)}
		}
	case wakeEvent:
		return platform.Wake{}
	case inboxEvent:
		return e.event
	}
	return nil
}

func keyName(e key.Event) string {
	if e.Rune > 0 {
		return string(e.Rune)
	}
	return strings.ToLower(strings.TrimPrefix(e.Code.String(), "Code"))
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
