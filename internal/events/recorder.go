package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDisabled is returned by queries when no store is configured
var ErrDisabled = errors.New("event log is disabled")

const defaultListLimit = 50

// Recorder writes conversation events. Storage failures are logged, never
// returned, so auditing cannot break a relay operation.
type Recorder struct {
	store  EventStore
	logger *zap.Logger
}

// NewRecorder creates a recorder. A nil store keeps events in the log stream only.
func NewRecorder(store EventStore, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:  store,
		logger: logger,
	}
}

// Enabled reports whether events are persisted
func (r *Recorder) Enabled() bool {
	return r.store != nil
}

// Record fills in ID and timestamp, logs the event and persists it when a store is set
func (r *Recorder) Record(ctx context.Context, event *ConversationEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	fields := []zap.Field{
		zap.String("user_id", event.UserID),
		zap.String("conversation_id", event.ConversationID),
		zap.String("operation", event.Operation),
		zap.String("outcome", event.Outcome),
		zap.Int("status_code", event.StatusCode),
		zap.Int64("duration_ms", event.DurationMS),
	}
	if event.Success {
		r.logger.Info("Conversation event", fields...)
	} else {
		r.logger.Warn("Conversation event", append(fields, zap.String("error", event.ErrorMsg))...)
	}

	if r.store == nil {
		return
	}

	if err := event.Validate(); err != nil {
		r.logger.Error("Dropping invalid conversation event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.store.CreateEvent(ctx, event); err != nil {
		r.logger.Error("Failed to persist conversation event",
			zap.String("user_id", event.UserID),
			zap.String("operation", event.Operation),
			zap.Error(err))
	}
}

// ListByUser returns recent events for a user
func (r *Recorder) ListByUser(ctx context.Context, userID string, limit int) ([]*ConversationEvent, error) {
	if r.store == nil {
		return nil, ErrDisabled
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	out, err := r.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation events: %w", err)
	}
	return out, nil
}

// Close closes the underlying store, if any
func (r *Recorder) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}
