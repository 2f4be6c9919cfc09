package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
)

// QueryFilter narrows a query listing. Every set field must match; a nil
// field places no restriction on that dimension.
type QueryFilter struct {
	Status      *domain.QueryStatus
	QueryTypeID *int64
	CreatorID   *uuid.UUID
	AssigneeID  *uuid.UUID

	// Limit of zero means no limit.
	Limit  int
	Offset int
}

// Matches reports whether q satisfies every dimension of the filter.
// Pagination is ignored.
func (f QueryFilter) Matches(q *domain.Query) bool {
	if f.Status != nil && q.Status != *f.Status {
		return false
	}
	if f.QueryTypeID != nil && q.QueryTypeID != *f.QueryTypeID {
		return false
	}
	if f.CreatorID != nil && q.CreatorID != *f.CreatorID {
		return false
	}
	if f.AssigneeID != nil && !q.IsAssignedTo(*f.AssigneeID) {
		return false
	}
	return true
}

// QueryRepository is the ticket store.
type QueryRepository interface {
	// Create persists a new query, assigning its problem number and initial version.
	Create(ctx context.Context, query *domain.Query) (*domain.Query, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Query, error)
	// List returns matching queries, newest first.
	List(ctx context.Context, filter QueryFilter) ([]*domain.Query, error)
	// CompareAndSwap replaces the stored query only if its version still equals
	// expectedVersion. It returns ErrConflict otherwise.
	CompareAndSwap(ctx context.Context, expectedVersion int64, query *domain.Query) (*domain.Query, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// List returns users ordered by name. A nil role lists everyone.
	List(ctx context.Context, role *domain.Role) ([]*domain.User, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) (*domain.User, error)
	// UpdateProfile stores user's name and email. It fails with
	// ErrUserExists when another account already uses the email.
	UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error)
	CountByRole(ctx context.Context) (domain.UserTotals, error)
}

type QueryTypeRepository interface {
	Create(ctx context.Context, queryType *domain.QueryType) (*domain.QueryType, error)
	GetByID(ctx context.Context, id int64) (*domain.QueryType, error)
	List(ctx context.Context) ([]*domain.QueryType, error)
	SetActive(ctx context.Context, id int64, isActive bool) (*domain.QueryType, error)
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// WithReadOnlyTransaction runs fn against a consistent snapshot.
	WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DashboardCache stores computed dashboards by scope key.
//
// Every key has a generation that Invalidate bumps. A reader takes the
// generation before computing a dashboard and passes it to Set, which stores
// only if no invalidation happened in between, so a dashboard computed from
// pre-transition data is never written back after the transition dropped it.
type DashboardCache interface {
	Get(ctx context.Context, key string) (*domain.Dashboard, bool, error)
	Generation(ctx context.Context, key string) (int64, error)
	// Set reports whether the dashboard was stored.
	Set(ctx context.Context, key string, generation int64, dashboard *domain.Dashboard) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// EventBroadcaster fans out lifecycle events to live subscribers.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
