// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy. Callers distinguish failure classes with errors.Is; the
// concrete cause is carried via wrapping.
var (
	// ErrNotFound covers both a genuinely absent id and a tenant mismatch,
	// so a caller can never distinguish "not yours" from "does not exist".
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a row failed schema, type, or required-field checks.
	ErrValidation = errors.New("validation failed")

	// ErrReferential indicates a foreign id could not be resolved.
	ErrReferential = errors.New("referenced entity not found")

	// ErrConflict indicates an optimistic concurrency violation. The caller
	// must re-fetch and re-apply; last-write-wins is not offered.
	ErrConflict = errors.New("entity was modified concurrently")

	// ErrBackendUnavailable indicates the storage backend is unreachable.
	// Retry policy belongs to the caller, not the core.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrMaterialization indicates a recurrence write failed mid-operation.
	ErrMaterialization = errors.New("materialization failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
// Validation, referential, and conflict errors are never retryable.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrBackendUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
