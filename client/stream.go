package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ChangeEvent is one row-change notification from the backend stream.
type ChangeEvent struct {
	Table   string          `json:"table"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// ChangeHandler consumes stream events.
type ChangeHandler func(ChangeEvent)

// ChangeStream maintains a WebSocket subscription to the backend's realtime
// endpoint. Handlers are dispatched from a single reader goroutine; a
// session-revocation event for the signed-in user flips the gate to
// unauthenticated, as does any stream failure.
type ChangeStream struct {
	client *Client

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string][]ChangeHandler
	closed   bool
}

// Stream opens a change stream using the client's session.
func (c *Client) Stream(ctx context.Context) (*ChangeStream, error) {
	session, ok := c.sessions.get()
	if !ok {
		return nil, ErrSignedOut
	}

	endpoint := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/realtime"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+session.Tokens.AccessToken)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			c.forceSignOut()
			return nil, ErrSignedOut
		}
		return nil, fmt.Errorf("dial change stream: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	stream := &ChangeStream{
		client:   c,
		conn:     conn,
		handlers: make(map[string][]ChangeHandler),
	}
	go stream.readLoop()

	return stream, nil
}

// On registers a handler for events on one table. Registration must happen
// before the first event of interest arrives; handlers cannot be removed.
func (s *ChangeStream) On(table string, handler ChangeHandler) *ChangeStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[table] = append(s.handlers[table], handler)
	return s
}

// Close tears the subscription down.
func (s *ChangeStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}

func (s *ChangeStream) readLoop() {
	for {
		var event ChangeEvent
		if err := s.conn.ReadJSON(&event); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed && s.client.gate != nil {
				s.client.gate.StreamError(err)
			}
			s.conn.Close()
			return
		}

		if event.Table == "sessions" && event.Action == "delete" {
			s.client.forceSignOut()
		}

		s.mu.Lock()
		handlers := append([]ChangeHandler{}, s.handlers[event.Table]...)
		s.mu.Unlock()

		for _, handler := range handlers {
			handler(event)
		}
	}
}
