package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk/internal/adapters/secondary/memory"
	"github.com/lorrc/helpdesk/internal/auth"
	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/lorrc/helpdesk/internal/core/services"
)

const hardwareTypeID int64 = 1

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testAPI serves the full router over an in-memory store with one user per role.
type testAPI struct {
	t            *testing.T
	store        *memory.Store
	tokenManager *auth.TokenManager
	lifecycle    ports.LifecycleService
	router       stdhttp.Handler

	employee    *domain.User
	employee2   *domain.User
	specialist  *domain.User
	specialist2 *domain.User
	admin       *domain.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	logger := discardLogger()
	tm := auth.NewTokenManager("test-secret", time.Hour)
	lifecycle := services.NewLifecycleService(store.Queries(), store.Users(), store.QueryTypes(), store, nil, nil, logger)

	api := &testAPI{
		t:            t,
		store:        store,
		tokenManager: tm,
		lifecycle:    lifecycle,
	}
	api.router = NewRouter(RouterConfig{
		Logger:       logger,
		TokenManager: tm,
		Queries:      services.NewQueryService(store.Queries()),
		Lifecycle:    lifecycle,
		Dashboards:   services.NewDashboardService(store.Queries(), store.Users(), store, nil, logger),
		Directory:    services.NewDirectoryService(store.Users(), store.QueryTypes(), nil, logger),
		Health: NewHealthHandler("test", []Dependency{{
			Name:     "database",
			Checker:  HealthCheckerFunc(func(context.Context) error { return nil }),
			Required: true,
		}}, nil),
	})

	api.employee = api.addUser("Erin Employee", "erin@example.com", domain.RoleEmployee)
	api.employee2 = api.addUser("Eli Employee", "eli@example.com", domain.RoleEmployee)
	api.specialist = api.addUser("Sam Specialist", "sam@example.com", domain.RoleSpecialist)
	api.specialist2 = api.addUser("Sid Specialist", "sid@example.com", domain.RoleSpecialist)
	api.admin = api.addUser("Ada Admin", "ada@example.com", domain.RoleAdmin)
	return api
}

func (a *testAPI) addUser(name, email string, role domain.Role) *domain.User {
	a.t.Helper()
	user, err := domain.NewUser(domain.UserParams{Name: name, Email: email, Role: role})
	require.NoError(a.t, err)
	created, err := a.store.Users().Create(context.Background(), user)
	require.NoError(a.t, err)
	return created
}

func (a *testAPI) token(u *domain.User) string {
	a.t.Helper()
	token, err := a.tokenManager.GenerateToken(u.ID, u.Role)
	require.NoError(a.t, err)
	return token
}

// do sends a request as u (anonymous when nil) and returns the recorder.
func (a *testAPI) do(u *domain.User, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(u))
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// file creates a query for u directly through the lifecycle service.
func (a *testAPI) file(u *domain.User, title string) *domain.Query {
	a.t.Helper()
	q, err := a.lifecycle.Create(context.Background(), domain.Actor{ID: u.ID, Role: u.Role}, ports.CreateQueryParams{
		QueryTypeID: hardwareTypeID,
		Title:       title,
	})
	require.NoError(a.t, err)
	return q
}

func (a *testAPI) assign(q *domain.Query, specialist *domain.User) *domain.Query {
	a.t.Helper()
	assigned, err := a.lifecycle.Assign(context.Background(), domain.Actor{ID: a.admin.ID, Role: domain.RoleAdmin}, q.ID, specialist.ID)
	require.NoError(a.t, err)
	return assigned
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/v1/queries", "/api/v1/dashboard", "/api/v1/users", "/api/v1/query-types"} {
		rec := api.do(nil, stdhttp.MethodGet, path, nil)
		require.Equal(t, stdhttp.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_HealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(nil, stdhttp.MethodGet, "/health/live", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = api.do(nil, stdhttp.MethodGet, "/health/ready", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	require.Equal(t, "healthy", health.Status)
	require.Contains(t, health.Checks, "database")
}

func TestRouter_AttachesRequestID(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(api.employee, stdhttp.MethodGet, "/api/v1/queries", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
