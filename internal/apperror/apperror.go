// Package apperror defines the error categories the HTTP layer maps to
// status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when no valid identity can be resolved
	// from a request. The cause (missing, tampered, expired) is never
	// distinguished to the caller.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotConnected is returned when a user has no stored Spotify
	// credential. It is a normal outcome for ids that never authorized,
	// distinct from a generic not-found.
	ErrNotConnected = errors.New("user not connected")

	// ErrValidation is returned for malformed request input.
	ErrValidation = errors.New("invalid request")
)

// UpstreamError is a non-2xx response from Spotify, either the token
// endpoint or the catalog API. It carries the upstream status and body;
// nothing retries it.
type UpstreamError struct {
	Op     string // operation that failed, e.g. "refresh token"
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: spotify returned %d: %s", e.Op, e.Status, e.Body)
}

// Upstream builds an UpstreamError.
func Upstream(op string, status int, body string) *UpstreamError {
	return &UpstreamError{Op: op, Status: status, Body: body}
}

// Validation wraps ErrValidation with a field-level message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
