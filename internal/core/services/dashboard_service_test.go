package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/mocks"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/lorrc/helpdesk/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Roles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.moveTo(t, f.file(t, f.employee, "T1"), domain.StatusCompleted, f.specialist)
	f.moveTo(t, f.file(t, f.employee, "T2"), domain.StatusInProgress, f.specialist)
	f.file(t, f.employee2, "T3")
	for i := 0; i < 5; i++ {
		f.file(t, f.employee, "filler")
	}

	t.Run("employee", func(t *testing.T) {
		d, err := f.dashboards.Dashboard(ctx, f.employee)
		require.NoError(t, err)

		assert.Equal(t, domain.RoleEmployee, d.Role)
		assert.Equal(t, domain.StatusCounts{Open: 5, InProgress: 1, Completed: 1}, d.Stats.Counts)
		assert.InDelta(t, 1.0/7.0, d.Stats.CompletionRate, 1e-9)
		assert.Len(t, d.Recent, services.RecentQueriesLimit)
		for _, q := range d.Recent {
			assert.Equal(t, f.employee.ID, q.CreatorID)
		}
		assert.Nil(t, d.Users)
		assert.Empty(t, d.Specialists)
	})

	t.Run("specialist", func(t *testing.T) {
		d, err := f.dashboards.Dashboard(ctx, f.specialist)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusCounts{InProgress: 1, Completed: 1}, d.Stats.Counts)
		assert.Equal(t, 0.5, d.Stats.CompletionRate)
		require.Len(t, d.Employees, 1)
		assert.Equal(t, f.employee.ID, d.Employees[0].UserID)
		assert.Equal(t, "Erin Employee", d.Employees[0].Name)
		assert.Equal(t, domain.Workload{Total: 2, Pending: 1, Completed: 1}, d.Employees[0].Workload)
	})

	t.Run("admin", func(t *testing.T) {
		d, err := f.dashboards.Dashboard(ctx, f.admin)
		require.NoError(t, err)

		assert.Equal(t, 8, d.Stats.Total)
		assert.Equal(t, domain.StatusCounts{Open: 6, InProgress: 1, Completed: 1}, d.Stats.Counts)
		require.NotNil(t, d.Users)
		assert.Equal(t, domain.UserTotals{Total: 5, Employees: 2, Specialists: 2, Admins: 1}, *d.Users)

		require.Len(t, d.Specialists, 2, "idle specialists are listed too")
		assert.Equal(t, f.specialist.ID, d.Specialists[0].UserID)
		assert.Equal(t, "Sam Specialist", d.Specialists[0].Name)
		assert.Equal(t, domain.Workload{Total: 2, Pending: 1, Completed: 1}, d.Specialists[0].Workload)
		assert.Equal(t, f.specialist2.ID, d.Specialists[1].UserID)
		assert.Zero(t, d.Specialists[1].Total)

		require.Len(t, d.Employees, 2)
		assert.Equal(t, f.employee.ID, d.Employees[0].UserID)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := f.dashboards.Dashboard(ctx, domain.Actor{ID: uuid.New(), Role: "guest"})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestDashboardService_Cache(t *testing.T) {
	ctx := context.Background()
	employee := domain.Actor{ID: uuid.New(), Role: domain.RoleEmployee}
	key := services.EmployeeDashboardKey(employee.ID)

	t.Run("hit skips the store", func(t *testing.T) {
		repo := mocks.NewMockQueryRepository()
		cache := mocks.NewMockDashboardCache()
		svc := services.NewDashboardService(repo, mocks.NewMockUserRepository(), mocks.NewMockTransactionManager(), cache, discardLogger())

		cached := &domain.Dashboard{Role: domain.RoleEmployee}
		cache.On("Get", ctx, key).Return(cached, true, nil)

		d, err := svc.Dashboard(ctx, employee)

		require.NoError(t, err)
		assert.Same(t, cached, d)
		repo.AssertNotCalled(t, "List")
	})

	t.Run("miss computes and stores", func(t *testing.T) {
		repo := mocks.NewMockQueryRepository()
		cache := mocks.NewMockDashboardCache()
		svc := services.NewDashboardService(repo, mocks.NewMockUserRepository(), mocks.NewMockTransactionManager(), cache, discardLogger())

		cache.On("Get", ctx, key).Return(nil, false, nil)
		cache.On("Generation", ctx, key).Return(int64(4), nil)
		repo.On("List", ctx, ports.QueryFilter{CreatorID: &employee.ID}).Return([]*domain.Query{}, nil)
		cache.On("Set", ctx, key, int64(4), mock.AnythingOfType("*domain.Dashboard")).Return(true, nil)

		d, err := svc.Dashboard(ctx, employee)

		require.NoError(t, err)
		assert.Equal(t, 0, d.Stats.Total)
		assert.Equal(t, 0.0, d.Stats.CompletionRate)
		cache.AssertExpectations(t)
	})

	t.Run("cache failures fall back to recompute", func(t *testing.T) {
		repo := mocks.NewMockQueryRepository()
		cache := mocks.NewMockDashboardCache()
		svc := services.NewDashboardService(repo, mocks.NewMockUserRepository(), mocks.NewMockTransactionManager(), cache, discardLogger())

		cache.On("Get", ctx, key).Return(nil, false, errors.New("connection refused"))
		cache.On("Generation", ctx, key).Return(int64(0), nil)
		repo.On("List", ctx, mock.Anything).Return([]*domain.Query{}, nil)
		cache.On("Set", ctx, key, int64(0), mock.Anything).Return(false, errors.New("connection refused"))

		_, err := svc.Dashboard(ctx, employee)

		require.NoError(t, err)
	})

	t.Run("unknown generation skips the fill", func(t *testing.T) {
		repo := mocks.NewMockQueryRepository()
		cache := mocks.NewMockDashboardCache()
		svc := services.NewDashboardService(repo, mocks.NewMockUserRepository(), mocks.NewMockTransactionManager(), cache, discardLogger())

		cache.On("Get", ctx, key).Return(nil, false, nil)
		cache.On("Generation", ctx, key).Return(int64(0), errors.New("connection refused"))
		repo.On("List", ctx, mock.Anything).Return([]*domain.Query{}, nil)

		_, err := svc.Dashboard(ctx, employee)

		require.NoError(t, err)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDashboardService_CacheInvalidatedOnTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cache := newRecordingCache()

	lifecycle := services.NewLifecycleService(f.store.Queries(), f.store.Users(), f.store.QueryTypes(), f.store, cache, nil, discardLogger())
	dashboards := services.NewDashboardService(f.store.Queries(), f.store.Users(), f.store, cache, discardLogger())

	before, err := dashboards.Dashboard(ctx, f.specialist)
	require.NoError(t, err)
	assert.Equal(t, 0, before.Stats.Total)

	q, err := lifecycle.Create(ctx, f.employee, ports.CreateQueryParams{QueryTypeID: hardwareTypeID, Title: "Mouse"})
	require.NoError(t, err)
	_, err = lifecycle.Assign(ctx, f.admin, q.ID, f.specialist.ID)
	require.NoError(t, err)

	after, err := dashboards.Dashboard(ctx, f.specialist)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Stats.Total, "assignment must drop the specialist's cached dashboard")

	untouched, err := dashboards.Dashboard(ctx, f.specialist2)
	require.NoError(t, err)
	assert.Equal(t, 0, untouched.Stats.Total)
	assert.NotContains(t, cache.invalidated, services.SpecialistDashboardKey(f.specialist2.ID))
}

func TestDashboardService_Stats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.moveTo(t, f.file(t, f.employee, "T1"), domain.StatusCompleted, f.specialist)
	f.moveTo(t, f.file(t, f.employee, "T2"), domain.StatusInProgress, f.specialist2)
	f.file(t, f.employee2, "T3")

	stats, err := f.dashboards.Stats(ctx, f.admin, ports.QueryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total, "pagination does not apply to statistics")
	assert.InDelta(t, 1.0/3.0, stats.CompletionRate, 1e-9)

	stats, err = f.dashboards.Stats(ctx, f.admin, ports.QueryFilter{AssigneeID: &f.specialist.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCounts{Completed: 1}, stats.Counts)

	stats, err = f.dashboards.Stats(ctx, f.employee2, ports.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCounts{Open: 1}, stats.Counts)

	_, err = f.dashboards.Stats(ctx, f.specialist, ports.QueryFilter{CreatorID: &f.employee.ID})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDashboardService_TransitionDuringBuildIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cache := newRecordingCache()

	lifecycle := services.NewLifecycleService(f.store.Queries(), f.store.Users(), f.store.QueryTypes(), f.store, cache, nil, discardLogger())
	q, err := lifecycle.Create(ctx, f.employee, ports.CreateQueryParams{QueryTypeID: hardwareTypeID, Title: "Monitor"})
	require.NoError(t, err)

	// The assignment commits after the dashboard read the store but before it
	// is written to the cache.
	queries := &interleavingQueries{
		QueryRepository: f.store.Queries(),
		afterList: func() {
			_, err := lifecycle.Assign(ctx, f.admin, q.ID, f.specialist.ID)
			require.NoError(t, err)
		},
	}
	dashboards := services.NewDashboardService(queries, f.store.Users(), f.store, cache, discardLogger())

	first, err := dashboards.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCounts{Open: 1}, first.Stats.Counts, "the first read saw the store before the assignment")
	assert.Contains(t, cache.invalidated, services.AdminDashboardKey)

	second, err := dashboards.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCounts{Assigned: 1}, second.Stats.Counts)

	third, err := dashboards.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Same(t, second, third, "a dashboard built after the invalidation is cached")
}

// interleavingQueries runs afterList once, right after the first List returns.
type interleavingQueries struct {
	ports.QueryRepository
	afterList func()
	once      sync.Once
}

func (r *interleavingQueries) List(ctx context.Context, filter ports.QueryFilter) ([]*domain.Query, error) {
	qs, err := r.QueryRepository.List(ctx, filter)
	r.once.Do(r.afterList)
	return qs, err
}

// recordingCache is an in-process ports.DashboardCache that remembers invalidations.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Dashboard
	generations map[string]int64
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries:     make(map[string]*domain.Dashboard),
		generations: make(map[string]int64),
	}
}

func (c *recordingCache) Get(_ context.Context, key string) (*domain.Dashboard, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[key]
	return d, ok, nil
}

func (c *recordingCache) Generation(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key], nil
}

func (c *recordingCache) Set(_ context.Context, key string, generation int64, d *domain.Dashboard) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != generation {
		return false, nil
	}
	c.entries[key] = d
	return true, nil
}

func (c *recordingCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.generations[k]++
		c.invalidated = append(c.invalidated, k)
	}
	return nil
}
