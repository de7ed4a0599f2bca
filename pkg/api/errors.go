package api

import (
	"errors"
	"fmt"
)

const genericFailure = "Request failed"

var (
	// ErrTransport wraps failures that happened before an HTTP status was
	// received (connection refused, timeouts, unreadable bodies).
	ErrTransport = errors.New("request failed")
	// ErrValidation marks input rejected locally; no request was sent.
	ErrValidation = errors.New("validation failed")
	// ErrNoToken is returned when a login succeeds without a token in the body.
	ErrNoToken = errors.New("login response did not contain a token")
)

// Error is the normalized failure for any non-2xx response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message converts err into text fit for the user. Server messages are kept
// verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrTransport):
		return genericFailure
	default:
		return err.Error()
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
