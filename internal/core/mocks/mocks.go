package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockQueryRepository is a mock implementation of ports.QueryRepository
type MockQueryRepository struct {
	mock.Mock
}

func NewMockQueryRepository() *MockQueryRepository {
	return &MockQueryRepository{}
}

func (m *MockQueryRepository) Create(ctx context.Context, query *domain.Query) (*domain.Query, error) {
	args := m.Called(ctx, query)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Query) *domain.Query); ok {
		return fn(ctx, query), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Query), args.Error(1)
}

func (m *MockQueryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Query, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Query), args.Error(1)
}

func (m *MockQueryRepository) List(ctx context.Context, filter ports.QueryFilter) ([]*domain.Query, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Query), args.Error(1)
}

func (m *MockQueryRepository) CompareAndSwap(ctx context.Context, expectedVersion int64, query *domain.Query) (*domain.Query, error) {
	args := m.Called(ctx, expectedVersion, query)
	if fn, ok := args.Get(0).(func(context.Context, int64, *domain.Query) *domain.Query); ok {
		return fn(ctx, expectedVersion, query), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Query), args.Error(1)
}

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, role *domain.Role) ([]*domain.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id uuid.UUID, isActive bool) (*domain.User, error) {
	args := m.Called(ctx, id, isActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context) (domain.UserTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.UserTotals), args.Error(1)
}

// MockQueryTypeRepository is a mock implementation of ports.QueryTypeRepository
type MockQueryTypeRepository struct {
	mock.Mock
}

func NewMockQueryTypeRepository() *MockQueryTypeRepository {
	return &MockQueryTypeRepository{}
}

func (m *MockQueryTypeRepository) Create(ctx context.Context, queryType *domain.QueryType) (*domain.QueryType, error) {
	args := m.Called(ctx, queryType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryType), args.Error(1)
}

func (m *MockQueryTypeRepository) GetByID(ctx context.Context, id int64) (*domain.QueryType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryType), args.Error(1)
}

func (m *MockQueryTypeRepository) List(ctx context.Context) ([]*domain.QueryType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QueryType), args.Error(1)
}

func (m *MockQueryTypeRepository) SetActive(ctx context.Context, id int64, isActive bool) (*domain.QueryType, error) {
	args := m.Called(ctx, id, isActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryType), args.Error(1)
}

// MockTransactionManager runs the callback inline.
type MockTransactionManager struct{}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *MockTransactionManager) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockDashboardCache is a mock implementation of ports.DashboardCache
type MockDashboardCache struct {
	mock.Mock
}

func NewMockDashboardCache() *MockDashboardCache {
	return &MockDashboardCache{}
}

func (m *MockDashboardCache) Get(ctx context.Context, key string) (*domain.Dashboard, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Dashboard), args.Bool(1), args.Error(2)
}

func (m *MockDashboardCache) Generation(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDashboardCache) Set(ctx context.Context, key string, generation int64, dashboard *domain.Dashboard) (bool, error) {
	args := m.Called(ctx, key, generation, dashboard)
	return args.Bool(0), args.Error(1)
}

func (m *MockDashboardCache) Invalidate(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockLifecycleService is a mock implementation of ports.LifecycleService
type MockLifecycleService struct {
	mock.Mock
}

func NewMockLifecycleService() *MockLifecycleService {
	return &MockLifecycleService{}
}

func (m *MockLifecycleService) Create(ctx context.Context, actor domain.Actor, params ports.CreateQueryParams) (*domain.Query, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Query), args.Error(1)
}

func (m *MockLifecycleService) Assign(ctx context.Context, actor domain.Actor, queryID, specialistID uuid.UUID) (*domain.Query, error) {
	args := m.Called(ctx, actor, queryID, specialistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Query), args.Error(1)
}

func (m *MockLifecycleService) AdvanceStatus(ctx context.Context, actor domain.Actor, queryID uuid.UUID, target domain.QueryStatus) (*domain.Query, error) {
	args := m.Called(ctx, actor, queryID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Query), args.Error(1)
}
