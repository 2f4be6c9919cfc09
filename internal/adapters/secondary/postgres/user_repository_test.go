package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepos struct {
	queries    ports.QueryRepository
	users      ports.UserRepository
	queryTypes ports.QueryTypeRepository
	tx         *TransactionManager
}

// newTestRepos is a helper to create repos for a test.
func newTestRepos(t *testing.T) testRepos {
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")

	return testRepos{
		queries:    NewQueryRepository(testPool),
		users:      NewUserRepository(testPool),
		queryTypes: NewQueryTypeRepository(testPool),
		tx:         NewTransactionManager(testPool),
	}
}

// createTestUser inserts a user with a unique email.
func createTestUser(t *testing.T, ctx context.Context, users ports.UserRepository, role domain.Role) *domain.User {
	t.Helper()
	user, err := domain.NewUser(domain.UserParams{
		Name:  "Test " + string(role),
		Email: uuid.NewString() + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)

	created, err := users.Create(ctx, user)
	require.NoError(t, err)
	return created
}

func TestUserRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	// 1. Create a new user
	newUser, err := domain.NewUser(domain.UserParams{
		Name:  "Test User",
		Email: "test.user+" + uuid.NewString()[:8] + "@example.com",
		Role:  domain.RoleSpecialist,
	})
	require.NoError(t, err)

	createdUser, err := repos.users.Create(ctx, newUser)
	require.NoError(t, err, "Failed to create user")
	assert.Equal(t, newUser.ID, createdUser.ID)

	// 2. Get the user by ID
	foundUser, err := repos.users.GetByID(ctx, createdUser.ID)
	require.NoError(t, err)

	// 3. Assert values are correct
	assert.Equal(t, "Test User", foundUser.Name)
	assert.Equal(t, newUser.Email, foundUser.Email)
	assert.Equal(t, domain.RoleSpecialist, foundUser.Role)
	assert.True(t, foundUser.IsActive)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	existing := createTestUser(t, ctx, repos.users, domain.RoleEmployee)

	dup, err := domain.NewUser(domain.UserParams{Name: "Dup", Email: existing.Email, Role: domain.RoleEmployee})
	require.NoError(t, err)

	_, err = repos.users.Create(ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	user := createTestUser(t, ctx, repos.users, domain.RoleEmployee)
	other := createTestUser(t, ctx, repos.users, domain.RoleEmployee)

	changed := *user
	changed.Name = "Renamed"
	changed.Email = uuid.NewString() + "@example.com"
	changed.Role = domain.RoleAdmin

	updated, err := repos.users.UpdateProfile(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, changed.Email, updated.Email)
	assert.Equal(t, domain.RoleEmployee, updated.Role, "role is not written")

	taken := *updated
	taken.Email = strings.ToUpper(other.Email)
	_, err = repos.users.UpdateProfile(ctx, &taken)
	assert.ErrorIs(t, err, apperrors.ErrUserExists)

	missing := *updated
	missing.ID = uuid.New()
	_, err = repos.users.UpdateProfile(ctx, &missing)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_GetNotFound(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.users.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	before, err := repos.users.CountByRole(ctx)
	require.NoError(t, err)

	specialist := createTestUser(t, ctx, repos.users, domain.RoleSpecialist)
	createTestUser(t, ctx, repos.users, domain.RoleAdmin)

	after, err := repos.users.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Total+2, after.Total)
	assert.Equal(t, before.Specialists+1, after.Specialists)
	assert.Equal(t, before.Admins+1, after.Admins)

	role := domain.RoleSpecialist
	specialists, err := repos.users.List(ctx, &role)
	require.NoError(t, err)
	for _, u := range specialists {
		assert.Equal(t, domain.RoleSpecialist, u.Role)
	}

	everyone, err := repos.users.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, everyone, after.Total)

	updated, err := repos.users.SetActive(ctx, specialist.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}
