package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/simally/relay/internal/events"
	"github.com/simally/relay/internal/sessions"
	"github.com/simally/relay/internal/tavus"
)

// EndedMessage is returned once a session has been torn down
const EndedMessage = "Conversation ended and deleted successfully"

// ConversationProvider is the subset of the provider API the relay drives
type ConversationProvider interface {
	CreateConversation(ctx context.Context, req *tavus.CreateConversationRequest) (*tavus.Conversation, error)
	EndConversation(ctx context.Context, conversationID string) error
	DeleteConversation(ctx context.Context, conversationID string) error
}

// Service forwards create/end requests to the provider and tracks which
// conversation belongs to which user.
type Service struct {
	provider ConversationProvider
	store    sessions.SessionStore
	template tavus.CreateConversationRequest
	recorder *events.Recorder
	logger   *zap.Logger
	meter    metric.Meter
	newID    func() string
	now      func() time.Time
}

// ServiceOption customizes a Service
type ServiceOption func(*Service)

// WithRecorder sets the conversation event recorder
func WithRecorder(recorder *events.Recorder) ServiceOption {
	return func(s *Service) { s.recorder = recorder }
}

// WithServiceLogger sets the logger
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithServiceMeter sets the meter used for the active session gauge
func WithServiceMeter(meter metric.Meter) ServiceOption {
	return func(s *Service) { s.meter = meter }
}

// WithIDGenerator replaces the generator used for absent user IDs
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) { s.newID = fn }
}

// WithClock replaces the time source
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) { s.now = fn }
}

// NewService creates a new relay service
func NewService(provider ConversationProvider, store sessions.SessionStore, template tavus.CreateConversationRequest, opts ...ServiceOption) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("session store cannot be nil")
	}

	s := &Service{
		provider: provider,
		store:    store,
		template: template,
		logger:   zap.NewNop(),
		meter:    otel.Meter("github.com/simally/relay/internal/relay"),
		newID:    func() string { return uuid.New().String() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder == nil {
		s.recorder = events.NewRecorder(nil, s.logger)
	}

	_, err := s.meter.Int64ObservableGauge(
		"relay.sessions.active",
		metric.WithDescription("Conversations currently tracked by the relay"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			n, err := s.store.Count(ctx)
			if err != nil {
				return err
			}
			o.Observe(int64(n))
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active sessions gauge: %w", err)
	}

	return s, nil
}

// CreateSession asks the provider for a new conversation and remembers it
// for userID. An empty userID is replaced by a fresh UUID.
func (s *Service) CreateSession(ctx context.Context, userID string) (*CreateSessionResult, error) {
	if userID == "" {
		userID = s.newID()
	}

	payload := s.template
	began := s.now()
	conv, err := s.provider.CreateConversation(ctx, &payload)
	elapsed := s.now().Sub(began)

	event := &events.ConversationEvent{
		UserID:     userID,
		Operation:  events.OperationCreate,
		Success:    err == nil,
		Outcome:    tavus.Outcome(err),
		StatusCode: tavus.StatusCode(err),
		DurationMS: elapsed.Milliseconds(),
	}

	if err != nil {
		event.ErrorMsg = err.Error()
		s.recorder.Record(ctx, event)

		switch {
		case tavus.IsProvider(err):
			return nil, NewProviderRejectedError(userID, err)
		case tavus.IsTransport(err):
			return nil, NewProviderUnreachableError(userID, err)
		default:
			return nil, NewInternalError(userID, "failed to create conversation", err)
		}
	}

	event.ConversationID = conv.ConversationID

	previous, err := s.store.Put(ctx, &sessions.Session{
		UserID:          userID,
		ConversationID:  conv.ConversationID,
		ConversationURL: conv.ConversationURL,
		CreatedAt:       s.now(),
	})
	if err != nil {
		event.Success = false
		event.Outcome = tavus.Outcome(err)
		event.ErrorMsg = err.Error()
		s.recorder.Record(ctx, event)
		return nil, NewInternalError(userID, "failed to store session", err)
	}
	s.recorder.Record(ctx, event)
	if previous != nil && previous.ConversationID != conv.ConversationID {
		s.logger.Warn("Replaced active conversation for user",
			zap.String("user_id", userID),
			zap.String("previous_conversation_id", previous.ConversationID),
			zap.String("conversation_id", conv.ConversationID))
	}

	s.logger.Info("Conversation created",
		zap.String("user_id", userID),
		zap.String("conversation_id", conv.ConversationID))

	return &CreateSessionResult{
		ConversationID:  conv.ConversationID,
		ConversationURL: conv.ConversationURL,
		UserID:          userID,
	}, nil
}

// EndSession ends and deletes the user's conversation on the provider, then
// forgets it locally. Local removal happens whatever the provider answered.
func (s *Service) EndSession(ctx context.Context, userID string) (*EndSessionResult, error) {
	if userID == "" {
		return nil, NewSessionNotFoundError(userID)
	}

	session, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return nil, NewSessionNotFoundError(userID)
		}
		return nil, NewInternalError(userID, "failed to look up session", err)
	}

	// The provider calls must run to completion even if the caller goes away.
	callCtx := context.WithoutCancel(ctx)

	endOutcome := s.call(callCtx, events.OperationEnd, session, s.provider.EndConversation)
	deleteOutcome := s.call(callCtx, events.OperationDelete, session, s.provider.DeleteConversation)

	if err := s.store.Delete(ctx, userID); err != nil && !errors.Is(err, sessions.ErrSessionNotFound) {
		return nil, NewInternalError(userID, "failed to remove session", err)
	}

	if !endOutcome.Succeeded() || !deleteOutcome.Succeeded() {
		s.logger.Warn("Conversation removed locally despite provider failure",
			zap.String("user_id", userID),
			zap.String("conversation_id", session.ConversationID),
			zap.String("end_outcome", endOutcome.Outcome),
			zap.String("delete_outcome", deleteOutcome.Outcome))
	} else {
		s.logger.Info("Conversation ended",
			zap.String("user_id", userID),
			zap.String("conversation_id", session.ConversationID))
	}

	return &EndSessionResult{
		Message:        EndedMessage,
		ConversationID: session.ConversationID,
		End:            endOutcome,
		Delete:         deleteOutcome,
	}, nil
}

func (s *Service) call(ctx context.Context, op string, session *sessions.Session, fn func(context.Context, string) error) CallOutcome {
	began := s.now()
	err := fn(ctx, session.ConversationID)
	outcome := CallOutcome{
		Operation:  op,
		Outcome:    tavus.Outcome(err),
		StatusCode: tavus.StatusCode(err),
		Err:        err,
		Duration:   s.now().Sub(began),
	}

	event := &events.ConversationEvent{
		UserID:         session.UserID,
		ConversationID: session.ConversationID,
		Operation:      op,
		Success:        err == nil,
		Outcome:        outcome.Outcome,
		StatusCode:     outcome.StatusCode,
		DurationMS:     outcome.Duration.Milliseconds(),
	}
	if err != nil {
		event.ErrorMsg = err.Error()
	}
	s.recorder.Record(ctx, event)

	return outcome
}

// HealthCheck reports liveness and the number of tracked conversations
func (s *Service) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	return &HealthStatus{
		Status:              "healthy",
		ActiveConversations: n,
		Framework:           Framework,
	}, nil
}

// Root returns the static service description
func (s *Service) Root() *ServiceInfo {
	return &ServiceInfo{
		Message:   ServiceName,
		Framework: Framework,
	}
}

// ConversationEvents returns the recent provider calls made for a user
func (s *Service) ConversationEvents(ctx context.Context, userID string, limit int) ([]*events.ConversationEvent, error) {
	return s.recorder.ListByUser(ctx, userID, limit)
}
