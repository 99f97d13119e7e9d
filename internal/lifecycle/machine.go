package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is a stage in the application's lifetime.
type State int

const (
	Uninitialized State = iota
	LoopCreated
	WindowCreated
	Running
	Terminated
)

var stateNames = [...]string{
	Uninitialized: "uninitialized",
	LoopCreated:   "loop-created",
	WindowCreated: "window-created",
	Running:       "running",
	Terminated:    "terminated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ErrInvalidTransition is matched by every *TransitionError.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// TransitionError reports an attempt to move anywhere but forward by one step.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Snapshot is a copy of the machine at one point in time.
type Snapshot struct {
	State   State
	History []State // every state entered, oldest first
	Changed time.Time
}

// Machine coordinates the forward-only lifecycle. The zero value is
// Uninitialized and ready to use. All methods are safe for concurrent use.
type Machine struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Advance moves to the state immediately after the current one. Any other
// target, including re-entering a state, is a *TransitionError.
func (m *Machine) Advance(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.snapshot.State
	if from == Terminated || to != from+1 {
		return &TransitionError{From: from, To: to}
	}
	m.enter(to)
	return nil
}

// Terminate moves any live state to Terminated. It reports false when the
// machine had already terminated.
func (m *Machine) Terminate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot.State == Terminated {
		return false
	}
	m.enter(Terminated)
	return true
}

// Expect returns a *TransitionError unless the machine is in want. The
// error's To field names the state the caller was trying to reach.
func (m *Machine) Expect(want, next State) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot.State != want {
		return &TransitionError{From: m.snapshot.State, To: next}
	}
	return nil
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.State
}

// Snapshot returns a copy of the current snapshot.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.History = cloneHistory(m.snapshot.History)
	if len(snap.History) == 0 {
		snap.History = []State{Uninitialized}
	}
	return snap
}

func (m *Machine) enter(to State) {
	if len(m.snapshot.History) == 0 {
		m.snapshot.History = []State{Uninitialized}
	}
	m.snapshot.State = to
	m.snapshot.History = append(m.snapshot.History, to)
	m.snapshot.Changed = time.Now()
}

func cloneHistory(states []State) []State {
	if len(states) == 0 {
		return nil
	}
	dup := make([]State, len(states))
	copy(dup, states)
	return dup
}
