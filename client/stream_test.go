package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// streamServer upgrades realtime requests and forwards whatever the test
// feeds into send. Other handlers can be attached to mux.
type streamServer struct {
	mux     *http.ServeMux
	send    chan ChangeEvent
	headers chan http.Header
}

func newStreamServer(t *testing.T) *streamServer {
	t.Helper()

	s := &streamServer{
		mux:     http.NewServeMux(),
		send:    make(chan ChangeEvent, 8),
		headers: make(chan http.Header, 1),
	}

	upgrader := websocket.Upgrader{}
	s.mux.HandleFunc("GET /api/v1/realtime", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		select {
		case s.headers <- r.Header.Clone():
		default:
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for event := range s.send {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	})

	return s
}

func newStreamClient(t *testing.T) (*Client, *Gate, *MemoryTokenStore, *streamServer) {
	t.Helper()

	srv := newStreamServer(t)
	server := httptest.NewServer(srv.mux)
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(srv.send) })

	gate := NewGate()
	store := NewMemoryTokenStore()
	c, err := New(Config{BaseURL: server.URL, Store: store, Gate: gate})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	seedClientSession(t, c, store, "user-1", "access-1", "refresh-1")
	gate.SetSession("user-1", "access-1")

	return c, gate, store, srv
}

func TestStreamDeliversTableEvents(t *testing.T) {
	c, _, _, srv := newStreamClient(t)

	stream, err := c.Stream(context.Background())
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer stream.Close()

	if auth := (<-srv.headers).Get("Authorization"); auth != "Bearer access-1" {
		t.Fatalf("expected bearer credentials on dial, got %q", auth)
	}

	var mu sync.Mutex
	var got []ChangeEvent
	stream.On("posts", func(event ChangeEvent) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
	})

	srv.send <- ChangeEvent{Table: "posts", Action: "insert", Payload: json.RawMessage(`{"id":"post-1"}`)}
	srv.send <- ChangeEvent{Table: "comments", Action: "insert"}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0].Action != "insert" || string(got[0].Payload) != `{"id":"post-1"}` {
		t.Fatalf("unexpected event: %+v", got[0])
	}
}

func TestStreamSessionRevocationForcesSignOut(t *testing.T) {
	c, gate, store, srv := newStreamClient(t)

	stream, err := c.Stream(context.Background())
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer stream.Close()

	srv.send <- ChangeEvent{Table: "sessions", Action: "delete"}

	waitFor(t, func() bool {
		state, _ := gate.State()
		return state == GateUnauthenticated
	})

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected stored session discarded, got %v", err)
	}
	if c.UserID() != "" {
		t.Fatalf("expected cleared identity, got %q", c.UserID())
	}
}

func TestStreamErrorFailsGateToUnauthenticated(t *testing.T) {
	srv := newStreamServer(t)
	server := httptest.NewServer(srv.mux)

	gate := NewGate()
	store := NewMemoryTokenStore()
	c, err := New(Config{BaseURL: server.URL, Store: store, Gate: gate})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	seedClientSession(t, c, store, "user-1", "access-1", "refresh-1")

	stream, err := c.Stream(context.Background())
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer stream.Close()

	// Tearing down the server snaps the connection mid-stream.
	close(srv.send)
	server.Close()

	waitFor(t, func() bool {
		state, _ := gate.State()
		return state == GateUnauthenticated
	})
}

func TestStreamCloseIsNotAnError(t *testing.T) {
	c, gate, _, _ := newStreamClient(t)

	stream, err := c.Stream(context.Background())
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("close stream: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("repeat close: %v", err)
	}

	// A deliberate close must not flip the gate.
	state, userID := gate.State()
	if state != GateAuthenticated || userID != "user-1" {
		t.Fatalf("expected gate untouched by deliberate close, got %v %q", state, userID)
	}
}

func TestStreamRejectedDialSignsOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/realtime", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	gate := NewGate()
	store := NewMemoryTokenStore()
	c, err := New(Config{BaseURL: server.URL, Store: store, Gate: gate})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	seedClientSession(t, c, store, "user-1", "access-1", "refresh-1")

	if _, err := c.Stream(context.Background()); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("expected ErrSignedOut on rejected dial, got %v", err)
	}
	if state, _ := gate.State(); state != GateUnauthenticated {
		t.Fatalf("expected unauthenticated gate, got %v", state)
	}
}
