package relay

import (
	"time"

	"github.com/simally/relay/internal/config"
	"github.com/simally/relay/internal/tavus"
)

// Framework is reported by the health and root endpoints
const Framework = "Gin"

// ServiceName is reported by the root endpoint
const ServiceName = "SimAlly Game Backend API"

// CreateConversationRequest is the body of POST /api/create-riddle-conversation
type CreateConversationRequest struct {
	UserID string `json:"user_id"`
}

// EndConversationRequest is the body of POST /api/end-conversation
type EndConversationRequest struct {
	UserID string `json:"user_id"`
}

// ConversationResponse is the success body of the create endpoint
type ConversationResponse struct {
	Success         bool   `json:"success"`
	ConversationID  string `json:"conversation_id"`
	ConversationURL string `json:"conversation_url"`
	UserID          string `json:"user_id"`
}

// EndConversationResponse is the success body of the end endpoint
type EndConversationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed relay call
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CreateSessionResult is returned by Service.CreateSession
type CreateSessionResult struct {
	ConversationID  string
	ConversationURL string
	UserID          string
}

// CallOutcome captures one provider call made while ending a session
type CallOutcome struct {
	Operation  string
	Outcome    string
	StatusCode int
	Err        error
	Duration   time.Duration
}

// Succeeded reports whether the provider accepted the call
func (o CallOutcome) Succeeded() bool {
	return o.Err == nil
}

// EndSessionResult is returned by Service.EndSession. The record is always
// removed locally; End and Delete report what the provider said.
type EndSessionResult struct {
	Message        string
	ConversationID string
	End            CallOutcome
	Delete         CallOutcome
}

// HealthStatus is the body of GET /api/health
type HealthStatus struct {
	Status              string `json:"status"`
	ActiveConversations int    `json:"active_conversations"`
	Framework           string `json:"framework"`
}

// ServiceInfo is the body of GET /
type ServiceInfo struct {
	Message   string `json:"message"`
	Framework string `json:"framework"`
}

// NewConversationTemplate builds the fixed create payload from configuration
func NewConversationTemplate(cfg *config.Config) tavus.CreateConversationRequest {
	conv := cfg.Common.Conversation
	return tavus.CreateConversationRequest{
		ReplicaID:             cfg.Common.Tavus.ReplicaID,
		PersonaID:             cfg.Common.Tavus.PersonaID,
		CallbackURL:           conv.CallbackURL,
		ConversationName:      conv.Name,
		ConversationalContext: conv.Context,
		CustomGreeting:        conv.Greeting,
		Properties: tavus.ConversationProperties{
			MaxCallDuration:          conv.MaxCallDuration,
			ParticipantLeftTimeout:   conv.ParticipantLeftTimeout,
			ParticipantAbsentTimeout: conv.ParticipantAbsentTimeout,
			EnableRecording:          conv.EnableRecording,
			EnableClosedCaptions:     conv.EnableClosedCaptions,
			ApplyGreenscreen:         conv.ApplyGreenscreen,
			Language:                 conv.Language,
			RecordingS3BucketName:    conv.RecordingBucketName,
			RecordingS3BucketRegion:  conv.RecordingBucketRegion,
			AWSAssumeRoleARN:         conv.AWSAssumeRoleARN,
		},
	}
}
