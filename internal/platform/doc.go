// Package platform defines the contract between the loop controller and a
// windowing backend.
//
// # Overview
//
// A backend supplies three primitives and nothing else:
//
//   - Initialize: obtain the event pump (EventLoop)
//   - CreateWindow: allocate the single display surface owned by that loop
//   - Run: block in the dispatch loop, handing every event to a Dispatcher
//
// The controller never reimplements OS-level window management. It only
// consumes these primitives, which keeps it testable against the headless
// backend.
//
// # Backends
//
//   - x11: real desktop window via golang.org/x/exp/shiny
//   - terminal: the alternate screen of a terminal via Bubble Tea
//   - headless: scripted events, no display, used by tests
//
// # Control Flow
//
// The policy is always explicit:
//
//   - Wait (default): the loop parks until the next OS event. Nothing is
//     redrawn unless the platform asks for it.
//   - Poll: the loop never parks longer than RunConfig.Interval and emits a
//     RedrawRequested every tick.
//
// # Errors
//
// Startup failures are fatal and never retried:
//
//   - *PlatformInitError: no event pump (usually wraps ErrNoDisplay)
//   - *WindowCreationError: no surface (ErrWindowExists, ErrInvalidAttributes,
//     or the backend's own allocation error)
//
// Once Run has started there is no error path back to the caller, only
// termination.
package platform
