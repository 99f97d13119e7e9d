package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDisplay means the host has no display system the backend can use.
	ErrNoDisplay = errors.New("no display available")
	// ErrLoopExists means the backend already handed out its event loop.
	ErrLoopExists = errors.New("event loop already created")
	// ErrWindowExists means the loop already owns its window.
	ErrWindowExists = errors.New("window already created")
	// ErrInvalidAttributes means the requested window cannot exist.
	ErrInvalidAttributes = errors.New("invalid window attributes")
	// ErrForeignLoop means a loop from another backend was passed in.
	ErrForeignLoop = errors.New("event loop belongs to another backend")
)

// PlatformInitError reports that the event pump could not be obtained.
type PlatformInitError struct {
	Backend string
	Err     error
}

func (e *PlatformInitError) Error() string {
	return fmt.Sprintf("init %s platform: %v", e.Backend, e.Err)
}

func (e *PlatformInitError) Unwrap() error { return e.Err }

// WindowCreationError reports that the display surface could not be allocated.
type WindowCreationError struct {
	Backend    string
	Attributes WindowAttributes
	Err        error
}

func (e *WindowCreationError) Error() string {
	return fmt.Sprintf("create %s window: %v", e.Backend, e.Err)
}

func (e *WindowCreationError) Unwrap() error { return e.Err }

// IsFatal reports whether err belongs to the startup failure taxonomy.
func IsFatal(err error) bool {
	var initErr *PlatformInitError
	var winErr *WindowCreationError
	return errors.As(err, &initErr) || errors.As(err, &winErr)
}
