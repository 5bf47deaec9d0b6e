package events

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Operations recorded in the event log
const (
	OperationCreate = "create"
	OperationEnd    = "end"
	OperationDelete = "delete"
)

// ConversationEvent is an audit entry for one provider call made on behalf of a user
type ConversationEvent struct {
	bun.BaseModel `bun:"table:conversation_events,alias:ce"`

	ID             string    `bun:"id,pk" json:"id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	ConversationID string    `bun:"conversation_id" json:"conversation_id,omitempty"`
	Operation      string    `bun:"operation,notnull" json:"operation"`
	Success        bool      `bun:"success,notnull" json:"success"`
	Outcome        string    `bun:"outcome,notnull" json:"outcome"` // success, provider_error, transport_error, error
	StatusCode     int       `bun:"status_code" json:"status_code,omitempty"`
	ErrorMsg       string    `bun:"error_msg" json:"error_msg,omitempty"`
	DurationMS     int64     `bun:"duration_ms" json:"duration_ms"`
	Timestamp      time.Time `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`
}

// Validate validates the event entry
func (e *ConversationEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event ID cannot be empty")
	}
	if e.UserID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	switch e.Operation {
	case OperationCreate, OperationEnd, OperationDelete:
	default:
		return fmt.Errorf("unknown operation %q", e.Operation)
	}
	if e.Outcome == "" {
		return fmt.Errorf("outcome cannot be empty")
	}
	return nil
}
