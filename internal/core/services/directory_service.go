package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// DirectoryService administers users and query types.
type DirectoryService struct {
	users      ports.UserRepository
	queryTypes ports.QueryTypeRepository
	cache      ports.DashboardCache
	logger     *slog.Logger
}

var _ ports.DirectoryService = (*DirectoryService)(nil)

func NewDirectoryService(
	users ports.UserRepository,
	queryTypes ports.QueryTypeRepository,
	cache ports.DashboardCache,
	logger *slog.Logger,
) ports.DirectoryService {
	if cache == nil {
		cache = NoopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryService{
		users:      users,
		queryTypes: queryTypes,
		cache:      cache,
		logger:     logger,
	}
}

func (s *DirectoryService) ListUsers(ctx context.Context, actor domain.Actor, role *domain.Role) ([]*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx, role)
}

// ListSpecialists returns active specialists. Any signed-in role may browse them.
func (s *DirectoryService) ListSpecialists(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	if !actor.Role.IsValid() {
		return nil, apperrors.ErrForbidden
	}

	role := domain.RoleSpecialist
	users, err := s.users.List(ctx, &role)
	if err != nil {
		return nil, err
	}

	active := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active, nil
}

func (s *DirectoryService) CreateUser(ctx context.Context, actor domain.Actor, params domain.UserParams) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := domain.NewUser(params)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.invalidateAdmin(ctx)
	return created, nil
}

// SetUserActive enables or disables an account. Admins cannot deactivate themselves.
func (s *DirectoryService) SetUserActive(ctx context.Context, actor domain.Actor, userID uuid.UUID, isActive bool) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if userID == actor.ID && !isActive {
		return nil, apperrors.ErrForbidden
	}

	user, err := s.users.SetActive(ctx, userID, isActive)
	if err != nil {
		return nil, err
	}

	s.invalidateAdmin(ctx)
	return user, nil
}

// UpdateUser changes a user's name or email. Dashboards that show the user's
// name are invalidated: the admin view always, and every specialist view when
// an employee is renamed, since specialists see the employees they served.
func (s *DirectoryService) UpdateUser(ctx context.Context, actor domain.Actor, userID uuid.UUID, update domain.UserUpdate) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return current, nil
	}

	changed, err := update.Apply(*current)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, changed)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, s.keysShowing(ctx, user)...)
	return user, nil
}

// ListQueryTypes returns the whole catalog to admins and only active entries to everyone else.
func (s *DirectoryService) ListQueryTypes(ctx context.Context, actor domain.Actor) ([]*domain.QueryType, error) {
	if !actor.Role.IsValid() {
		return nil, apperrors.ErrForbidden
	}

	types, err := s.queryTypes.List(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return types, nil
	}

	active := make([]*domain.QueryType, 0, len(types))
	for _, qt := range types {
		if qt.IsActive {
			active = append(active, qt)
		}
	}
	return active, nil
}

func (s *DirectoryService) CreateQueryType(ctx context.Context, actor domain.Actor, name string) (*domain.QueryType, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	queryType, err := domain.NewQueryType(name)
	if err != nil {
		return nil, err
	}
	return s.queryTypes.Create(ctx, queryType)
}

func (s *DirectoryService) SetQueryTypeActive(ctx context.Context, actor domain.Actor, id int64, isActive bool) (*domain.QueryType, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.queryTypes.SetActive(ctx, id, isActive)
}

func (s *DirectoryService) invalidateAdmin(ctx context.Context) {
	s.invalidate(ctx, AdminDashboardKey)
}

func (s *DirectoryService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate dashboards",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}

// keysShowing returns the dashboards that display user's name or email.
func (s *DirectoryService) keysShowing(ctx context.Context, user *domain.User) []string {
	keys := []string{AdminDashboardKey}
	if user.Role != domain.RoleEmployee {
		return keys
	}

	role := domain.RoleSpecialist
	specialists, err := s.users.List(ctx, &role)
	if err != nil {
		s.logger.Warn("failed to list specialists for invalidation", slog.String("error", err.Error()))
		return keys
	}
	for _, sp := range specialists {
		keys = append(keys, SpecialistDashboardKey(sp.ID))
	}
	return keys
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}
