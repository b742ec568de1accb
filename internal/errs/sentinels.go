// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinels across client layers.
var (
	// ErrNotFound indicates the requested entity or stored key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates an expired, invalid or rejected credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("transport failure")

	// ErrMalformed indicates a response body that could not be decoded.
	ErrMalformed = errors.New("malformed response")

	// ErrNoRefreshToken indicates refresh was requested without a stored refresh credential.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrNotAuthenticated indicates an operation that needs a live session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionEnded indicates the session changed while a request was in flight; its result is discarded.
	ErrSessionEnded = errors.New("session ended")

	// ErrTerminalStatus indicates a borrow record that is already Returned or Losted.
	ErrTerminalStatus = errors.New("borrow record already settled")

	// ErrInvalidStatus indicates an unknown or disallowed target status.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNotConfirmed indicates the user declined the confirmation step.
	ErrNotConfirmed = errors.New("not confirmed")

	// ErrBusy indicates the same action is already in flight.
	ErrBusy = errors.New("action already in progress")

	// ErrTooManyAttempts indicates sign-in is locked after repeated failures.
	ErrTooManyAttempts = errors.New("too many failed sign-in attempts")
)

// APIError is a non-success HTTP response carrying the backend's {message}.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Message returns the text to show a user for err: the backend message when there is one.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
