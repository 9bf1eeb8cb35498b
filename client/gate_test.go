package client

import (
	"errors"
	"testing"
)

func TestGateStartsLoading(t *testing.T) {
	gate := NewGate()

	state, userID := gate.State()
	if state != GateLoading || userID != "" {
		t.Fatalf("expected loading gate, got %v %q", state, userID)
	}
}

func TestGateAuthenticates(t *testing.T) {
	gate := NewGate()

	var updates []GateUpdate
	gate.Observe(func(u GateUpdate) { updates = append(updates, u) })

	gate.SetSession("user-1", "token-a")

	state, userID := gate.State()
	if state != GateAuthenticated || userID != "user-1" {
		t.Fatalf("expected authenticated user-1, got %v %q", state, userID)
	}
	if len(updates) != 1 || updates[0].UserID != "user-1" {
		t.Fatalf("expected one auth update, got %+v", updates)
	}
}

func TestGateSameTokenDoesNotRenotify(t *testing.T) {
	gate := NewGate()

	var updates []GateUpdate
	gate.Observe(func(u GateUpdate) { updates = append(updates, u) })

	gate.SetSession("user-1", "token-a")
	gate.SetSession("user-1", "token-a")

	if len(updates) != 1 {
		t.Fatalf("expected identity to stay stable on token reload, got %d updates", len(updates))
	}

	// A rotated token is a real transition.
	gate.SetSession("user-1", "token-b")
	if len(updates) != 2 {
		t.Fatalf("expected update on token rotation, got %d updates", len(updates))
	}
}

func TestGateStreamErrorFailsToUnauthenticated(t *testing.T) {
	gate := NewGate()
	gate.SetSession("user-1", "token-a")

	var updates []GateUpdate
	gate.Observe(func(u GateUpdate) { updates = append(updates, u) })

	gate.StreamError(errors.New("connection reset"))

	state, userID := gate.State()
	if state != GateUnauthenticated || userID != "" {
		t.Fatalf("expected unauthenticated after stream error, got %v %q", state, userID)
	}

	// Observe delivered the current state once, then the transition.
	if len(updates) != 2 || updates[1].State != GateUnauthenticated {
		t.Fatalf("unexpected updates: %+v", updates)
	}

	// Repeats are absorbed.
	gate.ClearSession()
	if len(updates) != 2 {
		t.Fatalf("expected repeated sign-out to be silent, got %+v", updates)
	}
}

func TestGateObserveDeliversCurrentState(t *testing.T) {
	gate := NewGate()
	gate.SetSession("user-1", "token-a")

	var got *GateUpdate
	gate.Observe(func(u GateUpdate) { got = &u })

	if got == nil || got.State != GateAuthenticated || got.UserID != "user-1" {
		t.Fatalf("expected immediate delivery of current state, got %+v", got)
	}
}
