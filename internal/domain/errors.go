package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the API is unreachable (network failure or open circuit)
	ErrServerOffline = errors.New("server is unreachable")

	// ErrAuthFailed indicates the server rejected the credential
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotAuthenticated indicates an operation needs a session and none exists
	ErrNotAuthenticated = errors.New("not signed in")

	// ErrInvalidResponse indicates a response failed shape validation
	ErrInvalidResponse = errors.New("invalid server response")

	// ErrInvalidRequest indicates a request payload failed validation before sending
	ErrInvalidRequest = errors.New("invalid request")

	// ErrDraftNotFound indicates there is no local draft for an entry
	ErrDraftNotFound = errors.New("draft not found")
)

// ResponseError is returned when a response is well-formed JSON but not the
// expected shape. Endpoint identifies where it came from.
type ResponseError struct {
	Endpoint string
	Message  string
	Err      error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Endpoint)
}

func (e *ResponseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidResponse}
	}
	return []error{ErrInvalidResponse, e.Err}
}

// StatusError is a non-2xx response. A 401 also matches ErrAuthFailed.
type StatusError struct {
	Endpoint string
	Status   int
	Detail   string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrAuthFailed
	}
	return nil
}

// RequestError wraps a request validation failure
type RequestError struct {
	Fields map[string]string
	Err    error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() []error {
	return []error{ErrInvalidRequest, e.Err}
}

// Describe turns an operation error into a short message for the user.
// fallback is used when the error carries nothing more specific.
func Describe(err error, fallback string) string {
	var respErr *ResponseError
	var reqErr *RequestError
	var statusErr *StatusError
	switch {
	case errors.As(err, &respErr):
		return respErr.Message
	case errors.As(err, &reqErr):
		return fmt.Sprintf("%s: %s", fallback, reqErr.Err)
	case errors.As(err, &statusErr) && statusErr.Detail != "":
		return statusErr.Detail
	case errors.Is(err, ErrServerOffline):
		return fallback + ": server is unreachable"
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in first"
	default:
		return fallback
	}
}
