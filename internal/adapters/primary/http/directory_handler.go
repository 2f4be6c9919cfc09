package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/helpdesk/internal/adapters/primary/validation"
	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// DirectoryHandler serves the user directory and the query type catalog.
type DirectoryHandler struct {
	directory    ports.DirectoryService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

func NewDirectoryHandler(directory ports.DirectoryService, errorHandler *ErrorHandler, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		directory:    directory,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "directory"),
	}
}

func (h *DirectoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.HandleListUsers)
		r.Post("/", h.HandleCreateUser)
		r.Patch("/{userID}", h.HandleUpdateUser)
		r.Patch("/{userID}/status", h.HandleSetUserActive)
	})

	r.Get("/specialists", h.HandleListSpecialists)

	r.Route("/query-types", func(r chi.Router) {
		r.Get("/", h.HandleListQueryTypes)
		r.Post("/", h.HandleCreateQueryType)
		r.Patch("/{queryTypeID}/status", h.HandleSetQueryTypeActive)
	})
}

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r *CreateUserRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, domain.MaxNameLength)
	v.Required("email", r.Email).
		MaxLength("email", r.Email, domain.MaxEmailLength).
		Email("email", r.Email)
	v.Required("role", r.Role).
		OneOf("role", r.Role, roleNames())

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

func roleNames() []string {
	names := make([]string, 0, len(domain.AllRoles))
	for _, role := range domain.AllRoles {
		names = append(names, string(role))
	}
	return names
}

// UpdateUserRequest edits a profile. Omitted fields are left unchanged; the
// role cannot be sent, so the decoder rejects it as an unknown field.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (r *UpdateUserRequest) Validate() error {
	v := validation.NewValidator()

	v.Custom("body", r.Name != nil || r.Email != nil, "Provide name or email")
	if r.Name != nil {
		v.Required("name", *r.Name).
			MaxLength("name", *r.Name, domain.MaxNameLength)
	}
	if r.Email != nil {
		v.Required("email", *r.Email).
			MaxLength("email", *r.Email, domain.MaxEmailLength).
			Email("email", *r.Email)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// SetActiveRequest toggles a user or query type.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

func (r *SetActiveRequest) Validate() error {
	v := validation.NewValidator()

	v.Custom("isActive", r.IsActive != nil, "This field is required")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

type CreateQueryTypeRequest struct {
	Name string `json:"name"`
}

func (r *CreateQueryTypeRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, domain.MaxQueryTypeNameLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListUsers handles GET /users?role=
func (h *DirectoryHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	var role *domain.Role
	if raw := validation.ParseStringQueryParam(r, "role"); raw != nil {
		parsed, err := domain.ParseRole(*raw)
		if err != nil {
			v := validation.NewValidator()
			v.Custom("role", false, "Must be one of: employee, specialist, admin")
			h.errorHandler.Handle(w, r, v.Errors())
			return
		}
		role = &parsed
	}

	users, err := h.directory.ListUsers(r.Context(), actor, role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toUserDTOs(users))
}

// HandleCreateUser handles POST /users
func (h *DirectoryHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateUserRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.directory.CreateUser(r.Context(), actor, domain.UserParams{
		Name:  req.Name,
		Email: req.Email,
		Role:  domain.Role(req.Role),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user created", "new_user_id", user.ID, "new_user_role", user.Role)

	WriteCreated(w, toUserDTO(user))
}

// HandleUpdateUser handles PATCH /users/{userID}
func (h *DirectoryHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	userID, err := parseIDParam(r, "userID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateUserRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.directory.UpdateUser(r.Context(), actor, userID, domain.UserUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user updated", "target_user_id", userID)

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleSetUserActive handles PATCH /users/{userID}/status
func (h *DirectoryHandler) HandleSetUserActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	userID, err := parseIDParam(r, "userID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[SetActiveRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.directory.SetUserActive(r.Context(), actor, userID, *req.IsActive)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user status updated", "target_user_id", userID, "is_active", user.IsActive)

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleListSpecialists handles GET /specialists
func (h *DirectoryHandler) HandleListSpecialists(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	specialists, err := h.directory.ListSpecialists(r.Context(), actor)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toUserInfoDTOs(specialists))
}

// HandleListQueryTypes handles GET /query-types
func (h *DirectoryHandler) HandleListQueryTypes(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	types, err := h.directory.ListQueryTypes(r.Context(), actor)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toQueryTypeDTOs(types))
}

// HandleCreateQueryType handles POST /query-types
func (h *DirectoryHandler) HandleCreateQueryType(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateQueryTypeRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	qt, err := h.directory.CreateQueryType(r.Context(), actor, req.Name)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, toQueryTypeDTO(qt))
}

// HandleSetQueryTypeActive handles PATCH /query-types/{queryTypeID}/status
func (h *DirectoryHandler) HandleSetQueryTypeActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "queryTypeID"), 10, 64)
	if err != nil || id <= 0 {
		v := validation.NewValidator()
		v.Custom("queryTypeID", false, "Invalid query type ID")
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	req, err := validation.DecodeAndValidate[SetActiveRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	qt, err := h.directory.SetQueryTypeActive(r.Context(), actor, id, *req.IsActive)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toQueryTypeDTO(qt))
}
