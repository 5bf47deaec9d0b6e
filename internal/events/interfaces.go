package events

import (
	"context"
)

// EventStore defines the interface for event persistence
type EventStore interface {
	// CreateEvent persists a new event
	CreateEvent(ctx context.Context, event *ConversationEvent) error

	// ListByUser returns the most recent events for a user, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*ConversationEvent, error)

	// Close releases the underlying connection
	Close() error
}
