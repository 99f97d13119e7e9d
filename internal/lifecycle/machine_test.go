package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMachine_ForwardPath(t *testing.T) {
	var m Machine

	before := time.Now()
	for _, s := range []State{LoopCreated, WindowCreated, Running, Terminated} {
		if err := m.Advance(s); err != nil {
			t.Fatalf("Advance(%s) returned error: %v", s, err)
		}
	}

	snap := m.Snapshot()
	want := []State{Uninitialized, LoopCreated, WindowCreated, Running, Terminated}
	if diff := cmp.Diff(want, snap.History); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
	if snap.Changed.Before(before) {
		t.Fatalf("Changed = %v, want >= %v", snap.Changed, before)
	}
}

func TestMachine_RejectsSkipsAndRevisits(t *testing.T) {
	var m Machine

	if err := m.Advance(WindowCreated); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip to WindowCreated: err = %v, want ErrInvalidTransition", err)
	}
	if err := m.Advance(LoopCreated); err != nil {
		t.Fatalf("Advance(LoopCreated): %v", err)
	}
	if err := m.Advance(LoopCreated); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-entering LoopCreated: err = %v, want ErrInvalidTransition", err)
	}
	var te *TransitionError
	if err := m.Advance(Uninitialized); !errors.As(err, &te) || te.From != LoopCreated || te.To != Uninitialized {
		t.Fatalf("backwards transition: err = %#v", err)
	}
	if got := m.State(); got != LoopCreated {
		t.Fatalf("State = %s, want %s", got, LoopCreated)
	}
}

func TestMachine_TerminateIsTerminal(t *testing.T) {
	var m Machine
	_ = m.Advance(LoopCreated)

	if !m.Terminate() {
		t.Fatal("Terminate() = false on live machine, want true")
	}
	if m.Terminate() {
		t.Fatal("second Terminate() = true, want false")
	}
	if err := m.Advance(Running); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Advance after Terminated: err = %v, want ErrInvalidTransition", err)
	}
	want := []State{Uninitialized, LoopCreated, Terminated}
	if diff := cmp.Diff(want, m.Snapshot().History); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestMachine_ExpectNamesTarget(t *testing.T) {
	var m Machine
	err := m.Expect(WindowCreated, Running)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Expect error = %v, want *TransitionError", err)
	}
	if te.From != Uninitialized || te.To != Running {
		t.Fatalf("TransitionError = %+v, want uninitialized -> running", te)
	}
	if err := m.Expect(Uninitialized, LoopCreated); err != nil {
		t.Fatalf("Expect(Uninitialized) = %v, want nil", err)
	}
}

func TestMachine_SnapshotIsIndependent(t *testing.T) {
	var m Machine
	_ = m.Advance(LoopCreated)

	snap := m.Snapshot()
	snap.History[0] = Terminated

	if got := m.Snapshot().History[0]; got != Uninitialized {
		t.Fatalf("Snapshot should clone history; got %s want %s", got, Uninitialized)
	}
}

func TestState_String(t *testing.T) {
	if got := Running.String(); got != "running" {
		t.Fatalf("Running.String() = %q", got)
	}
	if got := State(42).String(); got != "state(42)" {
		t.Fatalf("State(42).String() = %q", got)
	}
}
