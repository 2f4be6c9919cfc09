package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
)

// CreateQueryParams defines the input for filing a new query.
type CreateQueryParams struct {
	QueryTypeID int64
	Title       string
	Description string
}

// LifecycleService is the only mutator of query status and assignee.
type LifecycleService interface {
	Create(ctx context.Context, actor domain.Actor, params CreateQueryParams) (*domain.Query, error)
	Assign(ctx context.Context, actor domain.Actor, queryID, specialistID uuid.UUID) (*domain.Query, error)
	AdvanceStatus(ctx context.Context, actor domain.Actor, queryID uuid.UUID, target domain.QueryStatus) (*domain.Query, error)
}

// QueryService defines role-scoped reads over the ticket store.
type QueryService interface {
	List(ctx context.Context, actor domain.Actor, filter QueryFilter) ([]*domain.Query, error)
	Get(ctx context.Context, actor domain.Actor, queryID uuid.UUID) (*domain.Query, error)
}

// DashboardService defines the port for derived statistics.
type DashboardService interface {
	Dashboard(ctx context.Context, actor domain.Actor) (*domain.Dashboard, error)
	Stats(ctx context.Context, actor domain.Actor, filter QueryFilter) (*domain.Stats, error)
}

// DirectoryService manages users and the query type catalog.
type DirectoryService interface {
	ListUsers(ctx context.Context, actor domain.Actor, role *domain.Role) ([]*domain.User, error)
	ListSpecialists(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
	CreateUser(ctx context.Context, actor domain.Actor, params domain.UserParams) (*domain.User, error)
	SetUserActive(ctx context.Context, actor domain.Actor, userID uuid.UUID, isActive bool) (*domain.User, error)
	UpdateUser(ctx context.Context, actor domain.Actor, userID uuid.UUID, update domain.UserUpdate) (*domain.User, error)
	ListQueryTypes(ctx context.Context, actor domain.Actor) ([]*domain.QueryType, error)
	CreateQueryType(ctx context.Context, actor domain.Actor, name string) (*domain.QueryType, error)
	SetQueryTypeActive(ctx context.Context, actor domain.Actor, id int64, isActive bool) (*domain.QueryType, error)
}
