package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	// ErrNotFound: a document or version id does not resolve
	ErrNotFound = errors.New("not found")

	// ErrValidation: a required field is missing or malformed (InvalidInput)
	ErrValidation = errors.New("validation failed")

	// ErrInvariantViolation: the operation would leave a document without any version
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrConcurrencyConflict: a transaction lost a write race on the same document; retryable
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrStorageUnavailable: the persistence substrate could not be reached
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrUnauthorized = errors.New("unauthorized")
)

// InvariantError describes a rejected deletion that would drop a document's
// version count below one. It matches ErrInvariantViolation via errors.Is.
type InvariantError struct {
	DocumentID string
	Current    int // versions before the rejected operation
	Requested  int // existing versions the operation would have removed
}

// Error implements the error interface
func (e *InvariantError) Error() string {
	return fmt.Sprintf("document %s must retain at least one version (has %d, deleting %d)",
		e.DocumentID, e.Current, e.Requested)
}

// StatusCode implements the HTTPError interface
func (e *InvariantError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrInvariantViolation
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// Kind returns a short stable name for the error class, used for metric labels and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid_input"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
