// Package lifecycle provides the forward-only state machine that tracks an
// application from startup to termination.
//
// # States
//
//	Uninitialized -> LoopCreated -> WindowCreated -> Running -> Terminated
//
// Advance only permits the next state, so no state is skipped on the way to
// Running and none is ever revisited. Terminate jumps straight to Terminated
// from any live state; it covers both the normal end of Run and aborting a
// controller that never ran.
//
// # Concurrency
//
// The loop goroutine is the only writer. Other goroutines (signal handling,
// workers, tests) read through State and Snapshot, which take a read lock and
// return copies.
package lifecycle
