// ============================================================================
// backend/internal/shared/errors.go
// Typed application errors shared by services and handlers
// ============================================================================

package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an AppError
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// AppError carries a client-facing message and the underlying cause
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a malformed or incomplete request
func NewValidationError(message string) error {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewNotFoundError reports a referenced entity that does not exist
func NewNotFoundError(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewConflictError reports a duplicate or already-applied change
func NewConflictError(message string) error {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewUnauthorizedError reports a missing, invalid or insufficient credential
func NewUnauthorizedError(message string) error {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// NewRateLimitedError reports a caller over its request budget
func NewRateLimitedError(message string) error {
	return &AppError{Kind: KindRateLimited, Message: message}
}

// NewInternalError wraps an infrastructure failure
func NewInternalError(message string, err error) error {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain.
// Errors outside the taxonomy are internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsNotFound checks if err is a NotFound AppError
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsConflict checks if err is a Conflict AppError
func IsConflict(err error) bool {
	return err != nil && KindOf(err) == KindConflict
}
