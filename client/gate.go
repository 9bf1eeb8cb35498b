package client

import "sync"

// GateState is the tri-state view of authentication UIs route on.
type GateState int

const (
	// GateLoading holds until the first session signal arrives.
	GateLoading GateState = iota
	GateAuthenticated
	GateUnauthenticated
)

func (s GateState) String() string {
	switch s {
	case GateLoading:
		return "loading"
	case GateAuthenticated:
		return "authenticated"
	case GateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// GateUpdate is delivered to observers on every state transition.
type GateUpdate struct {
	State  GateState
	UserID string
}

// Gate derives an auth routing state from session-change signals. Errors on
// the session stream collapse to unauthenticated; re-delivery of the same
// token is absorbed so identity stays stable across reloads.
type Gate struct {
	mu        sync.Mutex
	state     GateState
	userID    string
	token     string
	observers []func(GateUpdate)
}

// NewGate constructs a gate in the loading state.
func NewGate() *Gate {
	return &Gate{state: GateLoading}
}

// State returns the current gate state and identity.
func (g *Gate) State() (GateState, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.userID
}

// Observe registers a callback invoked on every transition. The current
// state is delivered immediately unless the gate is still loading.
func (g *Gate) Observe(fn func(GateUpdate)) {
	g.mu.Lock()
	g.observers = append(g.observers, fn)
	state, userID := g.state, g.userID
	g.mu.Unlock()

	if state != GateLoading {
		fn(GateUpdate{State: state, UserID: userID})
	}
}

// SetSession signals an authenticated session. Repeats of the same access
// token do not re-notify observers.
func (g *Gate) SetSession(userID, accessToken string) {
	g.mu.Lock()
	if g.state == GateAuthenticated && g.token == accessToken {
		g.mu.Unlock()
		return
	}
	g.state = GateAuthenticated
	g.userID = userID
	g.token = accessToken
	observers := append([]func(GateUpdate){}, g.observers...)
	g.mu.Unlock()

	for _, fn := range observers {
		fn(GateUpdate{State: GateAuthenticated, UserID: userID})
	}
}

// ClearSession signals a signed-out session.
func (g *Gate) ClearSession() {
	g.transitionUnauthenticated()
}

// StreamError signals a broken session stream. The gate fails to the safer
// signed-out state.
func (g *Gate) StreamError(error) {
	g.transitionUnauthenticated()
}

func (g *Gate) transitionUnauthenticated() {
	g.mu.Lock()
	if g.state == GateUnauthenticated {
		g.mu.Unlock()
		return
	}
	g.state = GateUnauthenticated
	g.userID = ""
	g.token = ""
	observers := append([]func(GateUpdate){}, g.observers...)
	g.mu.Unlock()

	for _, fn := range observers {
		fn(GateUpdate{State: GateUnauthenticated})
	}
}
