package auth

import (
	"context"
	"testing"
	"time"
)

func newTestManager(accessTTL, refreshTTL time.Duration) (*Manager, *InMemorySessionStore) {
	store := NewInMemorySessionStore()
	signer := NewTokenSigner("test-secret", "picstream-test")
	return NewManager(accessTTL, refreshTTL, signer, store), store
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, store := newTestManager(time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	userID, err := manager.Verify(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1 got %q", userID)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old token should have been removed")
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _ := newTestManager(time.Minute, time.Hour)
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, _ := newTestManager(time.Minute, time.Millisecond)

	if _, err := manager.Refresh(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrRefreshTokenExpired {
		t.Fatalf("expected refresh expired got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestManagerRevokeAll(t *testing.T) {
	manager, store := newTestManager(time.Minute, time.Hour)

	first, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other, err := manager.Issue(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.RevokeAll(context.Background(), "user-1")

	if store.Has(first.RefreshToken) || store.Has(second.RefreshToken) {
		t.Fatal("expected all user-1 sessions to be revoked")
	}
	if !store.Has(other.RefreshToken) {
		t.Fatal("expected user-2 session to survive")
	}
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer := NewTokenSigner("secret-a", "picstream-test")
	token, err := signer.Sign("user-1", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	otherSigner := NewTokenSigner("secret-b", "picstream-test")
	if _, err := otherSigner.Verify(token); err != ErrInvalidAccessToken {
		t.Fatalf("expected invalid token for wrong secret got %v", err)
	}

	expiredToken, err := signer.Sign("user-1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.Verify(expiredToken); err != ErrInvalidAccessToken {
		t.Fatalf("expected invalid token for expiry got %v", err)
	}
}
