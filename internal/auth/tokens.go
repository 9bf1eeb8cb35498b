package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidAccessToken indicates the presented access token failed
// signature, expiry, or scope checks.
var ErrInvalidAccessToken = errors.New("invalid access token")

const scopeAccess = "picstream.access"

type accessClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// TokenSigner mints and validates the stateless access tokens attached to
// API requests. Refresh tokens are opaque and live in the SessionStore.
type TokenSigner struct {
	secret []byte
	issuer string
}

// NewTokenSigner creates a signer using the provided HMAC secret.
func NewTokenSigner(secret, issuer string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), issuer: issuer}
}

// Sign issues an HS256 access token for the user expiring at expiresAt.
func (s *TokenSigner) Sign(userID string, expiresAt time.Time) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scope: scopeAccess,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an access token, returning the subject user id.
func (s *TokenSigner) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidAccessToken
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || claims.Scope != scopeAccess || claims.Subject == "" {
		return "", ErrInvalidAccessToken
	}
	return claims.Subject, nil
}
