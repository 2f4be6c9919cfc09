package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// LifecycleService implements the query state machine.
// Every mutation is committed with a compare-and-set on the query version.
type LifecycleService struct {
	queries     ports.QueryRepository
	users       ports.UserRepository
	queryTypes  ports.QueryTypeRepository
	txManager   ports.TransactionManager
	cache       ports.DashboardCache
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
	now         func() time.Time
}

var _ ports.LifecycleService = (*LifecycleService)(nil)

// NewLifecycleService creates a new lifecycle service.
// cache and broadcaster may be nil.
func NewLifecycleService(
	queries ports.QueryRepository,
	users ports.UserRepository,
	queryTypes ports.QueryTypeRepository,
	txManager ports.TransactionManager,
	cache ports.DashboardCache,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) ports.LifecycleService {
	if cache == nil {
		cache = NoopCache{}
	}
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LifecycleService{
		queries:     queries,
		users:       users,
		queryTypes:  queryTypes,
		txManager:   txManager,
		cache:       cache,
		broadcaster: broadcaster,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create files a new open query on behalf of actor.
func (s *LifecycleService) Create(ctx context.Context, actor domain.Actor, params ports.CreateQueryParams) (*domain.Query, error) {
	// 1. Authorization Check
	if !actor.IsEmployee() && !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	// 2. Create domain entity with validation
	query, err := domain.NewQuery(domain.QueryParams{
		QueryTypeID: params.QueryTypeID,
		Title:       params.Title,
		Description: params.Description,
		CreatorID:   actor.ID,
	})
	if err != nil {
		return nil, err
	}

	// 3. Check the catalog entry and persist atomically
	var created *domain.Query
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		queryType, err := s.queryTypes.GetByID(ctx, params.QueryTypeID)
		if err != nil {
			return err
		}
		if !queryType.IsActive {
			return apperrors.ErrQueryTypeInactive
		}

		created, err = s.queries.Create(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventQueryCreated, created)
	return created, nil
}

// Assign binds an open query to an active specialist. Admin only.
func (s *LifecycleService) Assign(ctx context.Context, actor domain.Actor, queryID, specialistID uuid.UUID) (*domain.Query, error) {
	// 1. Authorization Check
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	// 2. Fetch the query and the specialist
	query, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, err
	}

	specialist, err := s.users.GetByID(ctx, specialistID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrSpecialistNotFound
		}
		return nil, err
	}
	if !specialist.IsSpecialist() || !specialist.IsActive {
		return nil, apperrors.ErrSpecialistNotFound
	}

	// 3. Apply assignment on a copy (domain validates the transition)
	expectedVersion := query.Version
	next := query.Clone()
	if err := next.Assign(specialist.ID, s.now()); err != nil {
		return nil, err
	}

	// 4. Commit only if nobody moved the query in between
	updated, err := s.queries.CompareAndSwap(ctx, expectedVersion, next)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, s.explainLostAssign(ctx, queryID)
		}
		return nil, err
	}

	s.publish(ctx, domain.EventQueryAssigned, updated)
	return updated, nil
}

// explainLostAssign reports InvalidTransition when the winner already moved
// the query out of open, and Conflict otherwise.
func (s *LifecycleService) explainLostAssign(ctx context.Context, queryID uuid.UUID) error {
	current, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return apperrors.ErrConflict
	}
	if current.Status != domain.StatusOpen {
		return apperrors.ErrInvalidTransition
	}
	return apperrors.ErrConflict
}

// AdvanceStatus moves an assigned query one step forward. Only the current
// assignee may advance it.
func (s *LifecycleService) AdvanceStatus(ctx context.Context, actor domain.Actor, queryID uuid.UUID, target domain.QueryStatus) (*domain.Query, error) {
	// 1. Fetch the query
	query, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, err
	}

	// 2. Open queries only leave through Assign. An open query has no
	// assignee, so this answers InvalidTransition to every caller and the
	// ownership check below only ever sees assigned queries.
	if query.Status == domain.StatusOpen {
		return nil, apperrors.ErrInvalidTransition
	}

	// 3. Ownership check
	if !actor.IsSpecialist() || !query.IsAssignedTo(actor.ID) {
		return nil, apperrors.ErrForbidden
	}

	// 4. Apply status change (domain validates the transition)
	expectedVersion := query.Version
	next := query.Clone()
	if err := next.Advance(target, s.now()); err != nil {
		return nil, err
	}

	// 5. Persist changes
	updated, err := s.queries.CompareAndSwap(ctx, expectedVersion, next)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventQueryStatusChanged, updated)
	return updated, nil
}

// publish drops cached dashboards that include q and notifies live clients.
// Failures here never undo a committed transition.
func (s *LifecycleService) publish(ctx context.Context, eventType domain.EventType, q *domain.Query) {
	if err := s.cache.Invalidate(ctx, DashboardKeysFor(q)...); err != nil {
		s.logger.Warn("failed to invalidate dashboards",
			slog.String("query_id", q.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	if err := s.broadcaster.Broadcast(domain.NewQueryEvent(eventType, q)); err != nil {
		s.logger.Warn("failed to broadcast query event",
			slog.String("event", string(eventType)),
			slog.String("query_id", q.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
