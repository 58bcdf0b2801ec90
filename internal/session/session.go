// Package session stores login sessions behind a small interface so the
// server can run on in-process memory or on Redis without the callers
// noticing.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for missing or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session ties a browser cookie to a logged-in user.
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the session backend.
type Store interface {
	// Create persists a new session for the user and returns it with a
	// fresh random token.
	Create(ctx context.Context, userID uuid.UUID, email string, ttl time.Duration) (*Session, error)
	// Get returns the session for a token, or ErrNotFound when it is
	// missing or expired.
	Get(ctx context.Context, token string) (*Session, error)
	// Delete removes a session; deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}

// newToken returns a 64-hex-char random session token.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
