package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeStore struct {
	mu      sync.Mutex
	events  []*ConversationEvent
	failErr error
	closed  bool
}

func (f *fakeStore) CreateEvent(ctx context.Context, event *ConversationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID string, limit int) ([]*ConversationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ConversationEvent
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.events[i].UserID == userID {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func TestRecorderPersistsEvents(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, zap.NewNop())
	require.True(t, rec.Enabled())

	ctx := context.Background()
	rec.Record(ctx, &ConversationEvent{UserID: "u1", ConversationID: "c1", Operation: OperationCreate, Success: true, Outcome: "success"})
	rec.Record(ctx, &ConversationEvent{UserID: "u1", ConversationID: "c1", Operation: OperationEnd, Outcome: "provider_error", StatusCode: 500})
	rec.Record(ctx, &ConversationEvent{UserID: "u2", ConversationID: "c2", Operation: OperationCreate, Success: true, Outcome: "success"})

	require.Len(t, store.events, 3)
	for _, ev := range store.events {
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Timestamp.IsZero())
	}

	got, err := rec.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, OperationEnd, got[0].Operation)
	assert.Equal(t, OperationCreate, got[1].Operation)

	require.NoError(t, rec.Close())
	assert.True(t, store.closed)
}

func TestRecorderDropsInvalidEvents(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, zap.NewNop())

	rec.Record(context.Background(), &ConversationEvent{UserID: "u1", Operation: "bogus", Outcome: "success"})
	rec.Record(context.Background(), &ConversationEvent{Operation: OperationCreate, Outcome: "success"})

	assert.Empty(t, store.events)
}

func TestRecorderSwallowsStoreErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := &fakeStore{failErr: errors.New("connection refused")}
	rec := NewRecorder(store, zap.New(core))

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), &ConversationEvent{UserID: "u1", Operation: OperationDelete, Success: true, Outcome: "success"})
	})

	assert.Equal(t, 1, logs.FilterMessage("Failed to persist conversation event").Len())
}

func TestRecorderWithoutStore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := NewRecorder(nil, zap.New(core))
	assert.False(t, rec.Enabled())

	rec.Record(context.Background(), &ConversationEvent{UserID: "u1", Operation: OperationEnd, Outcome: "transport_error", ErrorMsg: "dial tcp: refused"})

	entries := logs.FilterMessage("Conversation event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "dial tcp: refused", entries[0].ContextMap()["error"])

	_, err := rec.ListByUser(context.Background(), "u1", 10)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, rec.Close())
}

func TestConversationEventValidate(t *testing.T) {
	ev := &ConversationEvent{ID: "e1", UserID: "u1", Operation: OperationCreate, Outcome: "success"}
	assert.NoError(t, ev.Validate())

	ev.Outcome = ""
	assert.Error(t, ev.Validate())
}
