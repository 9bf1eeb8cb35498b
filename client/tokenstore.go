package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore persists the session across process restarts.
type TokenStore interface {
	Load() (Session, error)
	Save(session Session) error
	Clear() error
}

// ErrNoSession reports that the store holds no session.
var ErrNoSession = errors.New("client: no stored session")

// FileTokenStore keeps the session as a JSON file, created with owner-only
// permissions.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore constructs a store writing to path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(contents, &session); err != nil {
		return Session{}, &SchemaError{Type: "stored session", Err: err}
	}
	if session.Tokens.RefreshToken == "" {
		return Session{}, ErrNoSession
	}

	return session, nil
}

func (s *FileTokenStore) Save(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, contents, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	return nil
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the session in memory. Sessions do not survive a
// restart; intended for tests and short-lived tools.
type MemoryTokenStore struct {
	mu      sync.Mutex
	session Session
	set     bool
}

// NewMemoryTokenStore constructs an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Session{}, ErrNoSession
	}
	return s.session, nil
}

func (s *MemoryTokenStore) Save(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.set = true
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.set = false
	return nil
}
