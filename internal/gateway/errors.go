package gateway

import (
	"errors"
	"fmt"
)

// DefaultFailureMessage is used when a failed response carries no message
const DefaultFailureMessage = "API request failed"

var (
	// ErrAuthExpired marks a 401 response. The gateway resolves it itself by
	// clearing the session and redirecting to login.
	ErrAuthExpired = errors.New("session expired")
)

// RequestError is a non-2xx, non-401 response
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// TransportError is a failure before a usable response was obtained:
// network errors, unreadable or non-JSON bodies, local session read errors.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
