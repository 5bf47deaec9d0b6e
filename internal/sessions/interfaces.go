package sessions

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when no record exists for a user.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore defines the interface for session record storage
type SessionStore interface {
	// Get returns the record for userID or ErrSessionNotFound.
	Get(ctx context.Context, userID string) (*Session, error)

	// Put stores the record, replacing any existing one for the same user.
	// The replaced record, if any, is returned.
	Put(ctx context.Context, session *Session) (*Session, error)

	// Delete removes the record for userID or returns ErrSessionNotFound.
	Delete(ctx context.Context, userID string) error

	// Count returns the number of live records.
	Count(ctx context.Context) (int, error)
}
