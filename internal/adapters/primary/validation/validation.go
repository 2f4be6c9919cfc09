// Package validation turns request bodies and query strings into typed values,
// collecting every field problem into one apperrors.ValidationErrors.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
)

// MaxBodyBytes bounds every JSON request body. The largest legitimate body is a
// query with a full description.
const MaxBodyBytes = 64 << 10

const (
	defaultPageSize = 25

	msgRequired = "This field is required"
	msgUUID     = "Must be a valid UUID"
)

// Validator accumulates field errors. Methods return the validator so checks
// on one field can be chained.
type Validator struct {
	errors *apperrors.ValidationErrors
}

func NewValidator() *Validator {
	return &Validator{errors: apperrors.NewValidationErrors()}
}

func (v *Validator) HasErrors() bool { return v.errors.HasErrors() }

func (v *Validator) Errors() *apperrors.ValidationErrors { return v.errors }

// Required rejects empty and whitespace-only values.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, msgRequired)
	}
	return v
}

// MaxLength counts bytes, the same unit the domain limits use.
func (v *Validator) MaxLength(field, value string, limit int) *Validator {
	if len(value) > limit {
		v.errors.Add(field, fmt.Sprintf("Must be at most %d characters", limit))
	}
	return v
}

// Email checks a non-empty value with the same rule the domain applies.
func (v *Validator) Email(field, value string) *Validator {
	if value != "" && !domain.ValidEmail(value) {
		v.errors.Add(field, "Must be a valid email address")
	}
	return v
}

// UUID checks a non-empty value parses as a UUID.
func (v *Validator) UUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := uuid.Parse(value); err != nil {
		v.errors.Add(field, msgUUID)
	}
	return v
}

// OneOf checks a non-empty value against an enumeration; emptiness is left to Required.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// Custom records message when valid is false.
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// Validatable is implemented by request DTOs.
type Validatable interface {
	Validate() error
}

// DecodeAndValidate reads one JSON object into T and runs its Validate method.
// Unknown fields, trailing data and bodies over MaxBodyBytes are bad requests.
func DecodeAndValidate[T any, PT interface {
	*T
	Validatable
}](r *http.Request) (*T, error) {
	var req T

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewBadRequestError(err, "Request body too large")
		}
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, apperrors.NewBadRequestError(err, "Request body must contain a single JSON object")
	}

	if err := PT(&req).Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// PaginationParams is a limit/offset window.
type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset, falling back to defaults on absent
// or nonsensical values and capping limit at maxLimit.
func ParsePagination(r *http.Request, maxLimit int) PaginationParams {
	q := r.URL.Query()
	p := PaginationParams{Limit: defaultPageSize}

	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = min(n, maxLimit)
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n >= 0 {
		p.Offset = n
	}
	return p
}

// ParseUUIDParam parses a path or query value, recording a field error on failure.
func (v *Validator) ParseUUIDParam(field, value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		v.errors.Add(field, msgUUID)
		return uuid.Nil
	}
	return id
}

// OptionalUUIDQueryParam returns nil when key is absent or malformed; the
// malformed case is also recorded.
func (v *Validator) OptionalUUIDQueryParam(r *http.Request, key string) *uuid.UUID {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	if id := v.ParseUUIDParam(key, raw); id != uuid.Nil {
		return &id
	}
	return nil
}

// OptionalInt64QueryParam accepts positive integers only.
func (v *Validator) OptionalInt64QueryParam(r *http.Request, key string) *int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		v.errors.Add(key, "Must be a positive integer")
		return nil
	}
	return &n
}

// ParseStringQueryParam returns nil for an absent or empty parameter.
func ParseStringQueryParam(r *http.Request, key string) *string {
	if value := r.URL.Query().Get(key); value != "" {
		return &value
	}
	return nil
}
