package relay

import (
	"errors"
	"fmt"
)

// SessionError represents errors related to relay session operations
type SessionError struct {
	Type    string
	UserID  string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session error [%s] for user %s: %s (caused by: %v)", e.Type, e.UserID, e.Message, e.Cause)
	}
	return fmt.Sprintf("session error [%s] for user %s: %s", e.Type, e.UserID, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Session error types
const (
	SessionErrorTypeNotFound            = "not_found"
	SessionErrorTypeProviderRejected    = "provider_rejected"
	SessionErrorTypeProviderUnreachable = "provider_unreachable"
	SessionErrorTypeInternal            = "internal"
)

// NewSessionNotFoundError creates an error for a user without an active conversation
func NewSessionNotFoundError(userID string) *SessionError {
	return &SessionError{
		Type:    SessionErrorTypeNotFound,
		UserID:  userID,
		Message: "No active conversation found for user",
	}
}

// NewProviderRejectedError wraps a non-success response from the provider
func NewProviderRejectedError(userID string, cause error) *SessionError {
	return &SessionError{
		Type:    SessionErrorTypeProviderRejected,
		UserID:  userID,
		Message: "Failed to create conversation",
		Cause:   cause,
	}
}

// NewProviderUnreachableError wraps a transport failure reaching the provider
func NewProviderUnreachableError(userID string, cause error) *SessionError {
	return &SessionError{
		Type:    SessionErrorTypeProviderUnreachable,
		UserID:  userID,
		Message: "Request failed",
		Cause:   cause,
	}
}

// NewInternalError wraps any other failure
func NewInternalError(userID, message string, cause error) *SessionError {
	return &SessionError{
		Type:    SessionErrorTypeInternal,
		UserID:  userID,
		Message: message,
		Cause:   cause,
	}
}

// IsNotFound reports whether err is a not-found session error
func IsNotFound(err error) bool {
	var serr *SessionError
	return errors.As(err, &serr) && serr.Type == SessionErrorTypeNotFound
}
