// Package errors defines the failure taxonomy shared by the core and its
// adapters. Callers match with errors.Is / errors.As, never by message.
package errors

import (
	"errors"
	"fmt"
)

// Access
var (
	ErrForbidden    = errors.New("action forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Lookups. Every specific not-found error wraps ErrNotFound, so adapters can
// map the whole family with one errors.Is check.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrQueryNotFound      = fmt.Errorf("query %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrSpecialistNotFound = fmt.Errorf("specialist %w", ErrNotFound)
	ErrQueryTypeNotFound  = fmt.Errorf("query type %w", ErrNotFound)
)

// Lifecycle. ErrInvalidTransition means the request can never succeed against
// the query's current state; ErrConflict means another writer got there first.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("query was modified concurrently")
)

// Input
var (
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title exceeds maximum length of 255 characters")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
	ErrInvalidStatus      = errors.New("invalid query status")
	ErrQueryTypeInactive  = errors.New("query type is not active")

	ErrEmailRequired = errors.New("email is required")
	ErrEmailInvalid  = errors.New("email format is invalid")
	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name exceeds maximum length")
	ErrInvalidRole   = errors.New("invalid role")
)

// Uniqueness
var (
	ErrUserExists      = errors.New("user already exists")
	ErrQueryTypeExists = errors.New("query type already exists")
)

// Transport
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// IsRetryable reports whether re-reading the query and repeating the call can
// succeed. Only a lost compare-and-set qualifies.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// AppError carries an adapter-chosen status and code for an error that has no
// place in the taxonomy above, such as an unreadable request body.
type AppError struct {
	Err        error
	Message    string
	Code       string
	StatusCode int
	Details    map[string]any
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error { return e.Err }

// NewBadRequestError reports a request the server could not even parse.
func NewBadRequestError(err error, message string) *AppError {
	if err == nil {
		err = ErrBadRequest
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

// ValidationErrors collects per-field messages so a client can show them all
// at once instead of fixing one field per round trip.
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make(map[string][]string)}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool { return len(v.Errors) > 0 }

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
