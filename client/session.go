package client

import "sync"

// sessionState guards the in-memory session so refreshes racing with
// requests never observe a torn token pair.
type sessionState struct {
	mu      sync.Mutex
	session Session
	present bool
}

func (s *sessionState) get() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.present
}

func (s *sessionState) set(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.present = true
}

func (s *sessionState) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.present = false
}
