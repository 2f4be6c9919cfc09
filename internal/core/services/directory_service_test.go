package services_test

import (
	"context"
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

func TestDirectoryService_Users(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("admin lists users by role", func(t *testing.T) {
		role := domain.RoleEmployee
		users, err := f.directory.ListUsers(ctx, f.admin, &role)
		require.NoError(t, err)
		assert.Len(t, users, 2)

		all, err := f.directory.ListUsers(ctx, f.admin, nil)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("non-admin cannot list users", func(t *testing.T) {
		_, err := f.directory.ListUsers(ctx, f.employee, nil)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("anyone lists active specialists", func(t *testing.T) {
		_, err := f.directory.SetUserActive(ctx, f.admin, f.specialist2.ID, false)
		require.NoError(t, err)

		specialists, err := f.directory.ListSpecialists(ctx, f.employee)
		require.NoError(t, err)
		require.Len(t, specialists, 1)
		assert.Equal(t, f.specialist.ID, specialists[0].ID)

		_, err = f.directory.SetUserActive(ctx, f.admin, f.specialist2.ID, true)
		require.NoError(t, err)
	})

	t.Run("create user", func(t *testing.T) {
		user, err := f.directory.CreateUser(ctx, f.admin, domain.UserParams{Name: "New Hire", Email: "new@example.com", Role: domain.RoleEmployee})
		require.NoError(t, err)
		assert.True(t, user.IsActive)

		_, err = f.directory.CreateUser(ctx, f.admin, domain.UserParams{Name: "Dup", Email: "new@example.com", Role: domain.RoleEmployee})
		assert.ErrorIs(t, err, apperrors.ErrUserExists)

		_, err = f.directory.CreateUser(ctx, f.specialist, domain.UserParams{Name: "X", Email: "x@example.com", Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("admin cannot deactivate self", func(t *testing.T) {
		_, err := f.directory.SetUserActive(ctx, f.admin, f.admin.ID, false)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("deactivate unknown user", func(t *testing.T) {
		_, err := f.directory.SetUserActive(ctx, f.admin, uuid.New(), false)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestDirectoryService_InactiveSpecialistCannotBeAssigned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.directory.SetUserActive(ctx, f.admin, f.specialist.ID, false)
	require.NoError(t, err)

	q := f.file(t, f.employee, "Scanner")
	_, err = f.lifecycle.Assign(ctx, f.admin, q.ID, f.specialist.ID)
	assert.ErrorIs(t, err, apperrors.ErrSpecialistNotFound)
}

func TestDirectoryService_QueryTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.directory.CreateQueryType(ctx, f.admin, "Telephony")
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	_, err = f.directory.CreateQueryType(ctx, f.employee, "Parking")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.directory.CreateQueryType(ctx, f.admin, "  ")
	assert.ErrorIs(t, err, apperrors.ErrNameRequired)

	_, err = f.directory.SetQueryTypeActive(ctx, f.admin, created.ID, false)
	require.NoError(t, err)

	adminView, err := f.directory.ListQueryTypes(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, adminView, len(domain.DefaultQueryTypes)+1)

	employeeView, err := f.directory.ListQueryTypes(ctx, f.employee)
	require.NoError(t, err)
	assert.Len(t, employeeView, len(domain.DefaultQueryTypes))

	_, err = f.lifecycle.Create(ctx, f.employee, ports.CreateQueryParams{QueryTypeID: created.ID, Title: "Desk phone"})
	assert.ErrorIs(t, err, apperrors.ErrQueryTypeInactive)
}

func TestDirectoryService_InvalidatesAdminDashboard(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewMockUserRepository()
	cache := mocks.NewMockDashboardCache()
	svc := services.NewDirectoryService(users, mocks.NewMockQueryTypeRepository(), cache, discardLogger())

	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
	target := uuid.New()
	users.On("SetActive", ctx, target, false).Return(&domain.User{ID: target}, nil)
	cache.On("Invalidate", ctx, []string{services.AdminDashboardKey}).Return(nil)

	_, err := svc.SetUserActive(ctx, admin, target, false)

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestDirectoryService_UpdateUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	name := func(s string) *string { return &s }

	t.Run("admin renames a user", func(t *testing.T) {
		user, err := f.directory.UpdateUser(ctx, f.admin, f.employee.ID, domain.UserUpdate{
			Name:  name("  Erin Renamed "),
			Email: name("Erin.New@Example.com"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Erin Renamed", user.Name)
		assert.Equal(t, "erin.new@example.com", user.Email)
		assert.Equal(t, domain.RoleEmployee, user.Role)
		assert.True(t, user.IsActive)

		stored, err := f.store.Users().GetByID(ctx, f.employee.ID)
		require.NoError(t, err)
		assert.Equal(t, "Erin Renamed", stored.Name)
	})

	t.Run("omitted fields are kept", func(t *testing.T) {
		user, err := f.directory.UpdateUser(ctx, f.admin, f.specialist.ID, domain.UserUpdate{Name: name("Samira Specialist")})
		require.NoError(t, err)
		assert.Equal(t, "Samira Specialist", user.Name)
		assert.Equal(t, "sam@example.com", user.Email)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		_, err := f.directory.UpdateUser(ctx, f.admin, f.employee2.ID, domain.UserUpdate{Email: name("SAM@example.com")})
		assert.ErrorIs(t, err, apperrors.ErrUserExists)
	})

	t.Run("keeping own email is not a duplicate", func(t *testing.T) {
		_, err := f.directory.UpdateUser(ctx, f.admin, f.employee2.ID, domain.UserUpdate{Email: name("ELI@example.com")})
		assert.NoError(t, err)
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := f.directory.UpdateUser(ctx, f.admin, f.employee2.ID, domain.UserUpdate{Name: name("  "), Email: name("not-an-email")})
		var verrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.Errors, "name")
		assert.Contains(t, verrs.Errors, "email")
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		_, err := f.directory.UpdateUser(ctx, f.employee, f.employee.ID, domain.UserUpdate{Name: name("Me")})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.directory.UpdateUser(ctx, f.admin, uuid.New(), domain.UserUpdate{Name: name("Nobody")})
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestDirectoryService_RenameRefreshesCachedDashboards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.moveTo(t, f.file(t, f.employee, "Dock"), domain.StatusAssigned, f.specialist)

	cache := newRecordingCache()
	dashboards := services.NewDashboardService(f.store.Queries(), f.store.Users(), f.store, cache, discardLogger())
	directory := services.NewDirectoryService(f.store.Users(), f.store.QueryTypes(), cache, discardLogger())

	employeeName := func(d *domain.Dashboard) string {
		require.Len(t, d.Employees, 1)
		return d.Employees[0].Name
	}

	before, err := dashboards.Dashboard(ctx, f.specialist)
	require.NoError(t, err)
	assert.Equal(t, "Erin Employee", employeeName(before))
	adminBefore, err := dashboards.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "Erin Employee", employeeName(adminBefore))

	renamed := "Erin Renamed"
	_, err = directory.UpdateUser(ctx, f.admin, f.employee.ID, domain.UserUpdate{Name: &renamed})
	require.NoError(t, err)

	assert.Contains(t, cache.invalidated, services.AdminDashboardKey)
	assert.Contains(t, cache.invalidated, services.SpecialistDashboardKey(f.specialist.ID))
	assert.Contains(t, cache.invalidated, services.SpecialistDashboardKey(f.specialist2.ID))

	after, err := dashboards.Dashboard(ctx, f.specialist)
	require.NoError(t, err)
	assert.Equal(t, renamed, employeeName(after))
	adminAfter, err := dashboards.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, renamed, employeeName(adminAfter))
}

func TestDirectoryService_SpecialistRenameInvalidatesAdminOnly(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewMockUserRepository()
	cache := mocks.NewMockDashboardCache()
	svc := services.NewDirectoryService(users, mocks.NewMockQueryTypeRepository(), cache, discardLogger())

	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
	current := &domain.User{ID: uuid.New(), Name: "Sam", Email: "sam@example.com", Role: domain.RoleSpecialist, IsActive: true}
	renamed := *current
	renamed.Name = "Samira"

	users.On("GetByID", ctx, current.ID).Return(current, nil)
	users.On("UpdateProfile", ctx, &renamed).Return(&renamed, nil)
	cache.On("Invalidate", ctx, []string{services.AdminDashboardKey}).Return(nil)

	name := "Samira"
	user, err := svc.UpdateUser(ctx, admin, current.ID, domain.UserUpdate{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "Samira", user.Name)
	users.AssertExpectations(t)
	cache.AssertExpectations(t)
	users.AssertNotCalled(t, "List", ctx, mock.Anything)
}
