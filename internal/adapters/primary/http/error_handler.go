package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ValidationErrorResponse lists the failing fields of a 422.
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// errorMapping ties a sentinel to its response. An empty message means the
// error's own text is safe to show.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is checked in order, so specific not-found errors must come
// before ErrNotFound, which they all wrap.
var errorMappings = []errorMapping{
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{apperrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action"},

	{apperrors.ErrQueryNotFound, http.StatusNotFound, "NOT_FOUND", "Query not found"},
	{apperrors.ErrSpecialistNotFound, http.StatusNotFound, "NOT_FOUND", "Specialist not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND", "User not found"},
	{apperrors.ErrQueryTypeNotFound, http.StatusNotFound, "NOT_FOUND", "Query type not found"},
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found"},

	{apperrors.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", "The query cannot move to that status from its current status"},
	{apperrors.ErrConflict, http.StatusConflict, "CONFLICT", "The query was changed by someone else. Reload and try again."},
	{apperrors.ErrUserExists, http.StatusConflict, "USER_EXISTS", "A user with this email already exists"},
	{apperrors.ErrQueryTypeExists, http.StatusConflict, "QUERY_TYPE_EXISTS", "A query type with this name already exists"},

	{apperrors.ErrTitleRequired, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrTitleTooLong, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrDescriptionTooLong, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrInvalidStatus, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrQueryTypeInactive, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrEmailRequired, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrEmailInvalid, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrNameRequired, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrNameTooLong, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
	{apperrors.ErrInvalidRole, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},

	{apperrors.ErrBadRequest, http.StatusBadRequest, "BAD_REQUEST", "Bad request"},
	{apperrors.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later."},
}

// ErrorHandler turns service errors into JSON responses and logs them once.
type ErrorHandler struct {
	logger *slog.Logger
}

func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle writes the response for err. Unmapped errors become an opaque 500.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err)
		WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: validationErrs.Errors,
		})
		return
	}

	status, resp := h.resolve(err)
	h.logError(r, status, err)
	WriteJSON(w, status, resp)
}

func (h *ErrorHandler) resolve(err error) (int, ErrorResponse) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode, ErrorResponse{
			Error:   appErr.Error(),
			Code:    appErr.Code,
			Details: appErr.Details,
		}
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		resp := ErrorResponse{Error: m.message, Code: m.code}
		if resp.Error == "" {
			resp.Error = m.target.Error()
		}
		if apperrors.IsRetryable(err) {
			resp.Details = map[string]any{"retryable": true}
		}
		return m.status, resp
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: "An unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	}
}

// logError records the full error; the client only ever sees the mapped text.
func (h *ErrorHandler) logError(r *http.Request, status int, err error) {
	level, msg := slog.LevelWarn, "client error"
	if status >= http.StatusInternalServerError {
		level, msg = slog.LevelError, "server error"
	}
	h.logger.LogAttrs(r.Context(), level, msg,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status_code", status),
		slog.String("error", err.Error()),
	)
}
