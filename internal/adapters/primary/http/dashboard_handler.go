package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// DashboardHandler serves role dashboards and ad-hoc statistics.
type DashboardHandler struct {
	dashboards   ports.DashboardService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

func NewDashboardHandler(dashboards ports.DashboardService, errorHandler *ErrorHandler, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboards:   dashboards,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "dashboard"),
	}
}

// DashboardDTO is the role dashboard with recent queries rendered like the query list.
type DashboardDTO struct {
	Role        string                `json:"role"`
	Stats       domain.Stats          `json:"stats"`
	Recent      []QueryDTO            `json:"recent"`
	Specialists []domain.UserWorkload `json:"specialists,omitempty"`
	Employees   []domain.UserWorkload `json:"employees,omitempty"`
	Users       *domain.UserTotals    `json:"users,omitempty"`
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/stats", h.HandleStats)
}

// HandleDashboard handles GET /dashboard
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	dashboard, err := h.dashboards.Dashboard(r.Context(), actor)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	recent := make([]QueryDTO, 0, len(dashboard.Recent))
	for _, q := range dashboard.Recent {
		recent = append(recent, toQueryDTOWithActions(actor, q))
	}

	WriteJSON(w, http.StatusOK, DashboardDTO{
		Role:        string(dashboard.Role),
		Stats:       dashboard.Stats,
		Recent:      recent,
		Specialists: dashboard.Specialists,
		Employees:   dashboard.Employees,
		Users:       dashboard.Users,
	})
}

// HandleStats handles GET /stats with the same filter parameters as GET /queries
func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActor(w, r)
	if !ok {
		return
	}

	filter, err := parseQueryFilter(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	stats, err := h.dashboards.Stats(r.Context(), actor, filter)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
