package tavus

import (
	"errors"
	"fmt"
)

// ProviderError means the provider was reachable but rejected the call.
type ProviderError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tavus %s failed with status %s: %s", e.Op, e.Status, e.Body)
}

// TransportError means the provider could not be reached at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tavus %s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsProvider reports whether err carries a provider HTTP rejection
func IsProvider(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr)
}

// IsTransport reports whether err is a transport-level failure
func IsTransport(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr)
}

// Outcome classifies err for metrics and the event log
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsProvider(err):
		return "provider_error"
	case IsTransport(err):
		return "transport_error"
	default:
		return "error"
	}
}

// StatusCode returns the provider status carried by err, or 0
func StatusCode(err error) int {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.StatusCode
	}
	return 0
}
