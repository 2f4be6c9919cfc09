package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/lorrc/helpdesk/internal/adapters/secondary/memory"
	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/lorrc/helpdesk/internal/core/services"
	"github.com/stretchr/testify/require"
)

const hardwareTypeID int64 = 1

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires the services over a fresh in-memory store with one user per role.
type fixture struct {
	store      *memory.Store
	lifecycle  ports.LifecycleService
	queries    ports.QueryService
	dashboards ports.DashboardService
	directory  ports.DirectoryService

	employee    domain.Actor
	employee2   domain.Actor
	specialist  domain.Actor
	specialist2 domain.Actor
	admin       domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	logger := discardLogger()

	f := &fixture{
		store:      store,
		lifecycle:  services.NewLifecycleService(store.Queries(), store.Users(), store.QueryTypes(), store, nil, nil, logger),
		queries:    services.NewQueryService(store.Queries()),
		dashboards: services.NewDashboardService(store.Queries(), store.Users(), store, nil, logger),
		directory:  services.NewDirectoryService(store.Users(), store.QueryTypes(), nil, logger),
	}

	f.employee = f.addUser(t, "Erin Employee", "erin@example.com", domain.RoleEmployee)
	f.employee2 = f.addUser(t, "Eli Employee", "eli@example.com", domain.RoleEmployee)
	f.specialist = f.addUser(t, "Sam Specialist", "sam@example.com", domain.RoleSpecialist)
	f.specialist2 = f.addUser(t, "Sid Specialist", "sid@example.com", domain.RoleSpecialist)
	f.admin = f.addUser(t, "Ada Admin", "ada@example.com", domain.RoleAdmin)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role domain.Role) domain.Actor {
	t.Helper()
	user, err := domain.NewUser(domain.UserParams{Name: name, Email: email, Role: role})
	require.NoError(t, err)
	_, err = f.store.Users().Create(context.Background(), user)
	require.NoError(t, err)
	return domain.Actor{ID: user.ID, Role: role}
}

func (f *fixture) file(t *testing.T, by domain.Actor, title string) *domain.Query {
	t.Helper()
	q, err := f.lifecycle.Create(context.Background(), by, ports.CreateQueryParams{
		QueryTypeID: hardwareTypeID,
		Title:       title,
	})
	require.NoError(t, err)
	return q
}

// moveTo drives a new query along the lifecycle up to status.
func (f *fixture) moveTo(t *testing.T, q *domain.Query, status domain.QueryStatus, specialist domain.Actor) *domain.Query {
	t.Helper()
	ctx := context.Background()
	var err error

	for q.Status != status {
		if q.Status == domain.StatusOpen {
			q, err = f.lifecycle.Assign(ctx, f.admin, q.ID, specialist.ID)
		} else {
			next, _ := q.Status.Next()
			q, err = f.lifecycle.AdvanceStatus(ctx, specialist, q.ID, next)
		}
		require.NoError(t, err)
	}
	return q
}
