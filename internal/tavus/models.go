package tavus

// CreateConversationRequest is the body of POST /v2/conversations
type CreateConversationRequest struct {
	ReplicaID             string                 `json:"replica_id"`
	PersonaID             string                 `json:"persona_id"`
	CallbackURL           string                 `json:"callback_url"`
	ConversationName      string                 `json:"conversation_name"`
	ConversationalContext string                 `json:"conversational_context"`
	CustomGreeting        string                 `json:"custom_greeting"`
	Properties            ConversationProperties `json:"properties"`
}

// ConversationProperties are the call limits and media flags applied by the provider.
// The timeouts are enforced provider-side only.
type ConversationProperties struct {
	MaxCallDuration          int    `json:"max_call_duration"`
	ParticipantLeftTimeout   int    `json:"participant_left_timeout"`
	ParticipantAbsentTimeout int    `json:"participant_absent_timeout"`
	EnableRecording          bool   `json:"enable_recording"`
	EnableClosedCaptions     bool   `json:"enable_closed_captions"`
	ApplyGreenscreen         bool   `json:"apply_greenscreen"`
	Language                 string `json:"language"`
	RecordingS3BucketName    string `json:"recording_s3_bucket_name"`
	RecordingS3BucketRegion  string `json:"recording_s3_bucket_region"`
	AWSAssumeRoleARN         string `json:"aws_assume_role_arn"`
}

// Conversation is the subset of the provider's create response the relay uses
type Conversation struct {
	ConversationID  string `json:"conversation_id"`
	ConversationURL string `json:"conversation_url"`
	Status          string `json:"status,omitempty"`
}

// Operation names used in errors, spans and metrics
const (
	OpCreate = "create"
	OpEnd    = "end"
	OpDelete = "delete"
)
