package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// RecentQueriesLimit is how many of the newest queries a dashboard shows.
const RecentQueriesLimit = 5

// Dashboard cache keys, one per visibility scope.
const AdminDashboardKey = "dashboard:admin"

func EmployeeDashboardKey(id uuid.UUID) string   { return "dashboard:employee:" + id.String() }
func SpecialistDashboardKey(id uuid.UUID) string { return "dashboard:specialist:" + id.String() }

// DashboardKeyFor returns the cache key for actor's dashboard.
func DashboardKeyFor(actor domain.Actor) string {
	switch actor.Role {
	case domain.RoleEmployee:
		return EmployeeDashboardKey(actor.ID)
	case domain.RoleSpecialist:
		return SpecialistDashboardKey(actor.ID)
	}
	return AdminDashboardKey
}

// DashboardKeysFor returns every cached scope that contains q.
func DashboardKeysFor(q *domain.Query) []string {
	keys := []string{AdminDashboardKey, EmployeeDashboardKey(q.CreatorID)}
	if q.AssigneeID != nil {
		keys = append(keys, SpecialistDashboardKey(*q.AssigneeID))
	}
	return keys
}

// DashboardService computes role dashboards over the visible query set.
type DashboardService struct {
	queries   ports.QueryRepository
	users     ports.UserRepository
	txManager ports.TransactionManager
	cache     ports.DashboardCache
	logger    *slog.Logger
}

var _ ports.DashboardService = (*DashboardService)(nil)

// NewDashboardService creates a dashboard service. cache may be nil.
func NewDashboardService(
	queries ports.QueryRepository,
	users ports.UserRepository,
	txManager ports.TransactionManager,
	cache ports.DashboardCache,
	logger *slog.Logger,
) ports.DashboardService {
	if cache == nil {
		cache = NoopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		queries:   queries,
		users:     users,
		txManager: txManager,
		cache:     cache,
		logger:    logger,
	}
}

// Dashboard returns actor's dashboard, served from cache when possible.
func (s *DashboardService) Dashboard(ctx context.Context, actor domain.Actor) (*domain.Dashboard, error) {
	if !actor.Role.IsValid() {
		return nil, apperrors.ErrForbidden
	}

	key := DashboardKeyFor(actor)
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if ok {
		return cached, nil
	}

	// The generation must be read before the store, or an invalidation that
	// lands between the read and the fill would go unnoticed.
	generation, genErr := s.cache.Generation(ctx, key)
	if genErr != nil {
		s.logger.Warn("dashboard cache generation read failed", slog.String("key", key), slog.String("error", genErr.Error()))
	}

	var dashboard *domain.Dashboard
	err = s.txManager.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		dashboard, err = s.build(ctx, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		return dashboard, nil
	}
	stored, err := s.cache.Set(ctx, key, generation, dashboard)
	switch {
	case err != nil:
		s.logger.Warn("dashboard cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	case !stored:
		s.logger.Debug("dashboard invalidated while computing, not cached", slog.String("key", key))
	}
	return dashboard, nil
}

func (s *DashboardService) build(ctx context.Context, actor domain.Actor) (*domain.Dashboard, error) {
	// 1. Fetch the visible set
	scoped, err := ScopeFilter(actor, ports.QueryFilter{})
	if err != nil {
		return nil, err
	}
	visible, err := s.queries.List(ctx, scoped)
	if err != nil {
		return nil, err
	}

	// 2. Derive statistics
	dashboard := &domain.Dashboard{
		Role:   actor.Role,
		Stats:  Summarize(visible),
		Recent: recent(visible),
	}

	// 3. Role-specific breakdowns
	switch actor.Role {
	case domain.RoleSpecialist:
		names, err := s.directory(ctx)
		if err != nil {
			return nil, err
		}
		dashboard.Employees = withNames(PerEmployeeHistory(visible), names)

	case domain.RoleAdmin:
		names, err := s.directory(ctx)
		if err != nil {
			return nil, err
		}
		dashboard.Specialists = withIdleSpecialists(withNames(PerSpecialistWorkload(visible), names), names)
		dashboard.Employees = withNames(PerEmployeeHistory(visible), names)

		totals, err := s.users.CountByRole(ctx)
		if err != nil {
			return nil, err
		}
		dashboard.Users = &totals
	}

	return dashboard, nil
}

// Stats summarises the visible queries that match filter. Pagination is ignored.
func (s *DashboardService) Stats(ctx context.Context, actor domain.Actor, filter ports.QueryFilter) (*domain.Stats, error) {
	scoped, err := ScopeFilter(actor, filter)
	if err != nil {
		return nil, err
	}
	scoped.Limit, scoped.Offset = 0, 0

	visible, err := s.queries.List(ctx, scoped)
	if err != nil {
		return nil, err
	}
	stats := Summarize(visible)
	return &stats, nil
}

func (s *DashboardService) directory(ctx context.Context) (map[uuid.UUID]*domain.User, error) {
	users, err := s.users.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func recent(qs []*domain.Query) []*domain.Query {
	if len(qs) > RecentQueriesLimit {
		qs = qs[:RecentQueriesLimit]
	}
	out := make([]*domain.Query, len(qs))
	copy(out, qs)
	return out
}

func withNames(ws []domain.UserWorkload, users map[uuid.UUID]*domain.User) []domain.UserWorkload {
	for i := range ws {
		if u, ok := users[ws[i].UserID]; ok {
			info := u.Info()
			ws[i].Name = info.Name
			ws[i].Email = info.Email
		}
	}
	return ws
}

// withIdleSpecialists appends active specialists that have no queries yet.
func withIdleSpecialists(ws []domain.UserWorkload, users map[uuid.UUID]*domain.User) []domain.UserWorkload {
	seen := make(map[uuid.UUID]bool, len(ws))
	for _, w := range ws {
		seen[w.UserID] = true
	}

	var idle []domain.UserWorkload
	for _, u := range users {
		if u.IsSpecialist() && u.IsActive && !seen[u.ID] {
			info := u.Info()
			idle = append(idle, domain.UserWorkload{UserID: info.ID, Name: info.Name, Email: info.Email})
		}
	}
	sortWorkloads(idle)
	return append(ws, idle...)
}
