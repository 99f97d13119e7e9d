package platform

import "fmt"

// Event is anything a backend can pump into the dispatcher.
type Event interface {
	event()
}

// Resumed is delivered once when the loop starts dispatching.
type Resumed struct{}

// Resized reports a new inner size of the window, in backend units.
type Resized struct {
	Window        WindowID
	Width, Height int
}

// RedrawRequested asks the application to draw the window.
type RedrawRequested struct {
	Window WindowID
}

// Focused reports a change of input focus.
type Focused struct {
	Window  WindowID
	Focused bool
}

// KeyPressed carries a key press the backend did not treat as a close request.
type KeyPressed struct {
	Window WindowID
	Key    string
}

// CloseRequested is sent when the user asks to close the window.
type CloseRequested struct {
	Window WindowID
}

// UserEvent carries a payload sent from another goroutine.
type UserEvent struct {
	Payload any
}

// Wake interrupts a waiting loop without carrying data.
type Wake struct{}

func (Resumed) event()         {}
func (Resized) event()         {}
func (RedrawRequested) event() {}
func (Focused) event()         {}
func (KeyPressed) event()      {}
func (CloseRequested) event()  {}
func (UserEvent) event()       {}
func (Wake) event()            {}

// Describe renders an event for logs and status views.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case Resumed:
		return "resumed"
	case Resized:
		return fmt.Sprintf("resized %dx%d", e.Width, e.Height)
	case RedrawRequested:
		return "redraw"
	case Focused:
		if e.Focused {
			return "focus gained"
		}
		return "focus lost"
	case KeyPressed:
		return "key " + e.Key
	case CloseRequested:
		return "close requested"
	case UserEvent:
		return fmt.Sprintf("user %T", e.Payload)
	case Wake:
		return "wake"
	case nil:
		return "none"
	default:
		return fmt.Sprintf("%T", ev)
	}
}
