package client

import (
	"context"
	"errors"
	"sync"
)

// ToggleKind names an optimistic toggle.
type ToggleKind string

const (
	ToggleLike ToggleKind = "like"
	ToggleSave ToggleKind = "save"
)

// counted reports whether the toggle moves a paired counter.
func (k ToggleKind) counted() bool { return k == ToggleLike }

// Remote confirms a toggle against the backend.
type Remote interface {
	Apply(ctx context.Context, itemID string, kind ToggleKind, active bool) error
}

type remoteFunc func(ctx context.Context, itemID string, kind ToggleKind, active bool) error

func (f remoteFunc) Apply(ctx context.Context, itemID string, kind ToggleKind, active bool) error {
	return f(ctx, itemID, kind, active)
}

// ItemState is the locally observed value of one toggle on one item.
type ItemState struct {
	Active bool
	Count  int
}

// Update is delivered to observers whenever an item's state moves, either
// from an optimistic flip or from a rollback. Err is set on rollback.
type Update struct {
	ItemID string
	Kind   ToggleKind
	State  ItemState
	Err    error
}

// ErrReconcilerClosed reports a toggle issued after Close.
var ErrReconcilerClosed = errors.New("client: reconciler closed")

// Reconciler applies toggle flips to local state immediately and confirms
// them against the backend afterwards. A failed confirmation restores the
// snapshot recorded before the flip; it never recomputes the inverse from
// the already-mutated state. Toggles on an item that arrive while one is in
// flight are queued (latest wins) and submitted once the flight resolves, so
// local and server state converge after all requests finish. Close abandons
// in-flight responses: nothing mutates or notifies afterwards.
type Reconciler struct {
	remote Remote

	mu        sync.Mutex
	items     map[itemKey]*itemEntry
	observers []func(Update)
	closed    bool
}

type itemKey struct {
	itemID string
	kind   ToggleKind
}

type itemEntry struct {
	state   ItemState
	pending bool
	queued  *toggleOp
}

type toggleOp struct {
	ctx    context.Context
	active bool
	// prior is the snapshot taken before this flip; rollback restores it.
	prior ItemState
}

// NewReconciler constructs a reconciler confirming against remote.
func NewReconciler(remote Remote) *Reconciler {
	return &Reconciler{
		remote: remote,
		items:  make(map[itemKey]*itemEntry),
	}
}

// Observe registers a callback for state updates. Callbacks run on the
// goroutine that produced the update.
func (r *Reconciler) Observe(fn func(Update)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Seed installs the server-provided state for an item, typically from a feed
// load. Seeding is skipped while a toggle is unresolved so it cannot clobber
// an optimistic flip.
func (r *Reconciler) Seed(itemID string, kind ToggleKind, state ItemState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	key := itemKey{itemID: itemID, kind: kind}
	entry, ok := r.items[key]
	if !ok {
		r.items[key] = &itemEntry{state: state}
		return
	}
	if !entry.pending {
		entry.state = state
	}
}

// State returns the current local view of an item's toggle.
func (r *Reconciler) State(itemID string, kind ToggleKind) (ItemState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.items[itemKey{itemID: itemID, kind: kind}]
	if !ok {
		return ItemState{}, false
	}
	return entry.state, true
}

// Toggle flips the item's flag locally, notifies observers, and confirms the
// flip against the backend in the background.
func (r *Reconciler) Toggle(ctx context.Context, itemID string, kind ToggleKind) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrReconcilerClosed
	}

	key := itemKey{itemID: itemID, kind: kind}
	entry, ok := r.items[key]
	if !ok {
		entry = &itemEntry{}
		r.items[key] = entry
	}

	prior := entry.state
	entry.state.Active = !entry.state.Active
	if kind.counted() {
		if entry.state.Active {
			entry.state.Count++
		} else {
			entry.state.Count--
		}
	}

	op := &toggleOp{ctx: ctx, active: entry.state.Active, prior: prior}
	if entry.pending {
		// Latest intent wins; intermediate flips cancel out.
		entry.queued = op
	} else {
		entry.pending = true
		go r.confirm(key, op)
	}

	snapshot := entry.state
	observers := r.snapshotObservers()
	r.mu.Unlock()

	for _, fn := range observers {
		fn(Update{ItemID: itemID, Kind: kind, State: snapshot})
	}

	return nil
}

func (r *Reconciler) confirm(key itemKey, op *toggleOp) {
	err := r.remote.Apply(op.ctx, key.itemID, key.kind, op.active)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	entry := r.items[key]

	if err != nil {
		// The backend never applied this flip, so the snapshot recorded
		// before it is the server's state. Queued flips stacked on a failed
		// one are abandoned along with it.
		entry.state = op.prior
		entry.queued = nil
		entry.pending = false

		snapshot := entry.state
		observers := r.snapshotObservers()
		r.mu.Unlock()

		for _, fn := range observers {
			fn(Update{ItemID: key.itemID, Kind: key.kind, State: snapshot, Err: err})
		}
		return
	}

	next := entry.queued
	entry.queued = nil
	if next != nil && next.active != op.active {
		go r.confirm(key, next)
		r.mu.Unlock()
		return
	}
	// Either nothing is queued or the queued intent matches what the server
	// just confirmed; both mean local state already agrees.
	entry.pending = false
	r.mu.Unlock()
}

func (r *Reconciler) snapshotObservers() []func(Update) {
	observers := make([]func(Update), len(r.observers))
	copy(observers, r.observers)
	return observers
}

// Close abandons outstanding confirmations. Responses that arrive afterwards
// neither mutate state nor notify observers.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}
