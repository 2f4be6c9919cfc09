package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/lorrc/helpdesk/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk/internal/adapters/primary/validation"
	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/lorrc/helpdesk/internal/core/services"
	"github.com/lorrc/helpdesk/internal/infrastructure/logging"
)

const maxQueriesPerPage = 100

// QueryHandler handles HTTP requests for help-desk queries
type QueryHandler struct {
	queries      ports.QueryService
	lifecycle    ports.LifecycleService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(
	queries ports.QueryService,
	lifecycle ports.LifecycleService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *QueryHandler {
	return &QueryHandler{
		queries:      queries,
		lifecycle:    lifecycle,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "query"),
	}
}

// RegisterRoutes sets up the routing for all query endpoints.
func (h *QueryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListQueries)
	r.Post("/", h.HandleCreateQuery)

	r.Route("/{queryID}", func(r chi.Router) {
		r.Use(annotateQueryID)
		r.Get("/", h.HandleGetQuery)
		r.Patch("/assignee", h.HandleAssignQuery)
		r.Patch("/status", h.HandleAdvanceStatus)
	})
}

// --- Request/Response DTOs ---

// CreateQueryRequest defines the expected JSON body for filing a query
type CreateQueryRequest struct {
	QueryTypeID int64  `json:"queryTypeId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate validates the create query request
func (r *CreateQueryRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, domain.MaxTitleLength)
	v.MaxLength("description", r.Description, domain.MaxDescriptionLength)
	v.Custom("queryTypeId", r.QueryTypeID > 0, "This field is required")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// AssignQueryRequest defines the expected JSON body for assigning a query
type AssignQueryRequest struct {
	SpecialistID string `json:"specialistId"`
}

// Validate validates the assign request
func (r *AssignQueryRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("specialistId", r.SpecialistID).
		UUID("specialistId", r.SpecialistID)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// AdvanceStatusRequest defines the expected JSON body for status changes
type AdvanceStatusRequest struct {
	Status string `json:"status"`
}

// Validate accepts any status ParseQueryStatus accepts, so case and
// surrounding spaces are ignored here exactly as they are when parsing.
func (r *AdvanceStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status)
	if strings.TrimSpace(r.Status) != "" {
		_, err := domain.ParseQueryStatus(r.Status)
		v.Custom("status", err == nil, "Must be one of: "+strings.Join(statusNames(), ", "))
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

func statusNames() []string {
	names := make([]string, 0, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		names = append(names, string(s))
	}
	return names
}

// QueryDTO defines the JSON response for queries.
// Actions lists the lifecycle actions the caller may trigger next.
type QueryDTO struct {
	ID            string   `json:"id"`
	ProblemNumber int64    `json:"problemNumber"`
	QueryTypeID   int64    `json:"queryTypeId"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	CreatorID     string   `json:"creatorId"`
	AssigneeID    *string  `json:"assigneeId"`
	Version       int64    `json:"version"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
	CompletedAt   *string  `json:"completedAt"`
	Actions       []string `json:"actions"`
}

func toQueryDTO(q *domain.Query) QueryDTO {
	var assigneeID *string
	if q.AssigneeID != nil {
		value := q.AssigneeID.String()
		assigneeID = &value
	}

	var completedAt *string
	if q.CompletedAt != nil {
		value := q.CompletedAt.UTC().Format(time.RFC3339)
		completedAt = &value
	}

	return QueryDTO{
		ID:            q.ID.String(),
		ProblemNumber: q.ProblemNumber,
		QueryTypeID:   q.QueryTypeID,
		Title:         q.Title,
		Description:   q.Description,
		Status:        string(q.Status),
		CreatorID:     q.CreatorID.String(),
		AssigneeID:    assigneeID,
		Version:       q.Version,
		CreatedAt:     q.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     q.UpdatedAt.UTC().Format(time.RFC3339),
		CompletedAt:   completedAt,
	}
}

func toQueryDTOWithActions(actor domain.Actor, q *domain.Query) QueryDTO {
	dto := toQueryDTO(q)
	actions := services.PermittedActions(actor, q)
	dto.Actions = make([]string, 0, len(actions))
	for _, a := range actions {
		dto.Actions = append(dto.Actions, string(a))
	}
	return dto
}

func toQueryDTOs(actor domain.Actor, qs []*domain.Query) []QueryDTO {
	response := make([]QueryDTO, 0, len(qs))
	for _, q := range qs {
		response = append(response, toQueryDTOWithActions(actor, q))
	}
	return response
}

// --- Handlers ---

// HandleListQueries handles GET /queries
func (h *QueryHandler) HandleListQueries(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	filter, err := parseQueryFilter(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	pagination := validation.ParsePagination(r, maxQueriesPerPage)
	filter.Limit = pagination.Limit + 1
	filter.Offset = pagination.Offset

	queries, err := h.queries.List(r.Context(), actor, filter)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginatedSimple(w, toQueryDTOs(actor, queries), pagination.Limit, pagination.Offset)
}

// HandleCreateQuery handles POST /queries
func (h *QueryHandler) HandleCreateQuery(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateQueryRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	query, err := h.lifecycle.Create(r.Context(), actor, ports.CreateQueryParams{
		QueryTypeID: req.QueryTypeID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "query created",
		"query_id", query.ID,
		"problem_number", query.ProblemNumber,
	)

	WriteCreated(w, toQueryDTOWithActions(actor, query))
}

// HandleGetQuery handles GET /queries/{queryID}
func (h *QueryHandler) HandleGetQuery(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	queryID, err := parseIDParam(r, "queryID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	query, err := h.queries.Get(r.Context(), actor, queryID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toQueryDTOWithActions(actor, query))
}

// HandleAssignQuery handles PATCH /queries/{queryID}/assignee
func (h *QueryHandler) HandleAssignQuery(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	queryID, err := parseIDParam(r, "queryID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[AssignQueryRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	specialistID, err := uuid.Parse(req.SpecialistID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	query, err := h.lifecycle.Assign(r.Context(), actor, queryID, specialistID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "query assigned",
		"query_id", queryID,
		"specialist_id", specialistID,
	)

	WriteJSON(w, http.StatusOK, toQueryDTOWithActions(actor, query))
}

// HandleAdvanceStatus handles PATCH /queries/{queryID}/status
func (h *QueryHandler) HandleAdvanceStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	queryID, err := parseIDParam(r, "queryID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[AdvanceStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	target, err := domain.ParseQueryStatus(req.Status)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	query, err := h.lifecycle.AdvanceStatus(r.Context(), actor, queryID, target)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "query status advanced",
		"query_id", queryID,
		"status", query.Status,
	)

	WriteJSON(w, http.StatusOK, toQueryDTOWithActions(actor, query))
}

// --- Helpers shared by the handlers in this package ---

// getActor extracts the authenticated caller from the request context
func getActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := mw.GetActor(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return domain.Actor{}, false
	}
	return actor, true
}

// annotateQueryID adds the path's query ID to the request's log attributes.
func annotateQueryID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithQueryID(r.Context(), chi.URLParam(r, "queryID"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseIDParam extracts and validates a UUID path parameter
func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	v := validation.NewValidator()
	id := v.ParseUUIDParam(name, chi.URLParam(r, name))
	if v.HasErrors() {
		return uuid.Nil, v.Errors()
	}
	return id, nil
}

// parseQueryFilter reads the status, queryType, creatorId and assigneeId query parameters.
func parseQueryFilter(r *http.Request) (ports.QueryFilter, error) {
	v := validation.NewValidator()
	var filter ports.QueryFilter

	if raw := validation.ParseStringQueryParam(r, "status"); raw != nil {
		status, err := domain.ParseQueryStatus(*raw)
		if err != nil {
			v.Custom("status", false, "Must be one of: open, assigned, in_progress, completed")
		} else {
			filter.Status = &status
		}
	}

	filter.QueryTypeID = v.OptionalInt64QueryParam(r, "queryType")
	filter.CreatorID = v.OptionalUUIDQueryParam(r, "creatorId")
	filter.AssigneeID = v.OptionalUUIDQueryParam(r, "assigneeId")

	if v.HasErrors() {
		return ports.QueryFilter{}, v.Errors()
	}
	return filter, nil
}
