// Package identity validates a caller's claimed identity.
//
// Two interchangeable strategies implement the same Verifier
// capability: a session lookup against the store, and stateless
// verification of a signed token. Exactly one is active per
// deployment, chosen at configuration time.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sockchat/sockchat/internal/store"
)

var (
	// ErrNotRegistered is returned when a session ID has no live,
	// unexpired record in the store.
	ErrNotRegistered = errors.New("session not registered")

	// ErrInvalidToken is returned for every token verification
	// failure. Malformed input, a bad signature, and expiry all
	// collapse into this one error so callers cannot distinguish
	// them.
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier validates a credential and resolves it to a username.
type Verifier interface {
	Verify(ctx context.Context, credential string) (username string, err error)
}

// SessionVerifier resolves a session ID through the session store.
type SessionVerifier struct {
	store store.Store
}

// NewSessionVerifier creates a session-lookup verifier.
func NewSessionVerifier(s store.Store) *SessionVerifier {
	return &SessionVerifier{store: s}
}

// Verify looks the session up and returns its username. Expired
// sessions are already filtered by the store, so they fail the same
// way as unknown ones.
func (v *SessionVerifier) Verify(ctx context.Context, sessionID string) (string, error) {
	sess, err := v.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("look up session: %w", err)
	}
	if sess == nil {
		return "", ErrNotRegistered
	}
	return sess.Username, nil
}

// TokenVerifier checks an HMAC-signed token against a shared secret.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a signed-token verifier with the given
// shared secret.
func NewTokenVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{secret: secret}
}

// Verify parses and validates the token, returning the username claim.
// The verification failure reason is logged but never returned to the
// caller.
func (v *TokenVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		slog.Debug("Token verification failed", "error", err)
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		slog.Debug("Token missing username claim")
		return "", ErrInvalidToken
	}
	return username, nil
}
