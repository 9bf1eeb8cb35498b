package client

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testSession() Session {
	return Session{
		UserID: "user-1",
		Tokens: SessionTokens{
			AccessToken:      "access-token",
			AccessExpiresAt:  time.Now().UTC().Add(15 * time.Minute).Truncate(time.Second),
			RefreshToken:     "refresh-token",
			RefreshExpiresAt: time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second),
		},
	}
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileTokenStore(path)

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession on fresh store, got %v", err)
	}

	session := testSession()
	if err := store.Save(session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected owner-only session file, got %v", perm)
	}

	// A new store instance simulates a process restart.
	loaded, err := NewFileTokenStore(path).Load()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if loaded.UserID != session.UserID || loaded.Tokens.RefreshToken != session.Tokens.RefreshToken {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}
	if !loaded.Tokens.AccessExpiresAt.Equal(session.Tokens.AccessExpiresAt) {
		t.Fatalf("expected expiry to survive restart, got %v", loaded.Tokens.AccessExpiresAt)
	}
}

func TestFileTokenStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileTokenStore(path)

	if err := store.Save(testSession()); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected session file removed, got %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}

	// Clearing an already-empty store is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("repeat clear: %v", err)
	}
}

func TestFileTokenStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	var schemaErr *SchemaError
	if _, err := NewFileTokenStore(path).Load(); !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for corrupt session file, got %v", err)
	}
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	session := testSession()
	if err := store.Save(session); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.UserID != session.UserID {
		t.Fatalf("unexpected session: %+v", loaded)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
}
