// Package domain contains core domain types for the chat backend.
package domain

import (
	"time"
)

// Session is a pre-registered identity record keyed by an opaque
// session identifier. Sessions are written only by the registration
// side channel and read once at connect time.
type Session struct {
	SessionID string    `json:"session_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given
// instant. An expired session must be treated as absent; there is no
// partial-validity state.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
