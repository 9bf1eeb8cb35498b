package realtime

import (
	"log/slog"
	"sync"
)

// Event describes a data change pushed to connected clients. Payload holds
// the affected row (or its identifiers for deletes) and is serialized as-is.
type Event struct {
	Table   string `json:"table"`
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// Actions carried by events.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// SessionRevokedEvent is sent to a user's own connections when their
// sessions are revoked so clients can drop to the signed-out state without
// waiting for the next API call to fail.
func SessionRevokedEvent() Event {
	return Event{Table: "sessions", Action: ActionDelete}
}

// subscriber is a connected change-stream consumer.
type subscriber struct {
	ch     chan Event
	userID string
	done   chan struct{}
}

// Hub fans data-change events out to connected subscribers.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// Subscribe registers a consumer identified by its authenticated user.
// The returned cancel function must be called when the consumer is done;
// after cancel the channel may still hold buffered events but receives no
// new ones.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscriber{
		ch:     make(chan Event, 64),
		userID: userID,
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.done)
		})
	}
	return sub.ch, cancel
}

// Publish broadcasts an event to every subscriber. Slow consumers whose
// buffers are full are disconnected so they reconnect and refetch.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		h.deliver(sub, event)
	}
}

// PublishTo sends an event only to the given user's subscribers.
func (h *Hub) PublishTo(userID string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.userID == userID {
			h.deliver(sub, event)
		}
	}
}

// deliver requires h.mu held for writing.
func (h *Hub) deliver(sub *subscriber, event Event) {
	select {
	case sub.ch <- event:
	default:
		h.logger.Warn("dropping slow realtime subscriber", "userId", sub.userID)
		close(sub.ch)
		delete(h.subs, sub)
	}
}

// Shutdown disconnects every subscriber and rejects new subscriptions.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
}
