// Package loop implements the application loop controller.
//
// # Overview
//
// A Controller owns exactly one platform event loop and one window and moves
// them through the lifecycle:
//
//	New()           Uninitialized
//	Initialize()    -> LoopCreated     (fails with *platform.PlatformInitError)
//	CreateWindow()  -> WindowCreated   (fails with *platform.WindowCreationError)
//	Run()           -> Running         (blocks the calling goroutine)
//	                -> Terminated      (Run returns, window released)
//
// Calling an operation out of order returns a *lifecycle.TransitionError and
// leaves the controller untouched.
//
// # Dispatch
//
// Each event the backend pumps goes through the same cycle:
//
//  1. If the run context is done, terminate (ReasonCancelled).
//  2. A CloseRequested for the owned window terminates (ReasonCloseRequested)
//     and is not forwarded.
//  3. Anything else goes to the Handler; platform.Exit terminates
//     (ReasonHandlerExit).
//
// If the backend returns on its own, the run ends with ReasonBackendStopped
// and the backend's error is kept on Termination.Err. Run itself only fails
// when called in the wrong state.
//
// # Concurrency
//
// The loop is single-threaded: the goroutine that calls Run owns the pump and
// the window until Run returns. Other goroutines talk to the handler through
// Proxy, which delivers platform.UserEvent values on the loop goroutine.
// Cancellation is cooperative: cancelling the run context makes the backend
// deliver a Wake, and the controller notices at the top of that cycle.
package loop
