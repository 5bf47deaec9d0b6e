package sessions

import (
	"fmt"
	"time"
)

// Session links a caller-chosen user identifier to a provider-issued conversation
type Session struct {
	UserID          string    `json:"user_id"`
	ConversationID  string    `json:"conversation_id"`
	ConversationURL string    `json:"conversation_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate validates the session record
func (s *Session) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if s.ConversationID == "" {
		return fmt.Errorf("conversation ID cannot be empty")
	}
	return nil
}
