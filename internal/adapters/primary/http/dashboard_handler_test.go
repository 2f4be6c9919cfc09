package http

import (
	stdhttp "net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk/internal/core/domain"
)

func TestDashboardHandler_PerRole(t *testing.T) {
	api := newTestAPI(t)

	q1 := api.assign(api.file(api.employee, "Monitor flicker"), api.specialist)
	api.file(api.employee, "Keyboard missing keys")
	api.assign(api.file(api.employee2, "VPN drops"), api.specialist2)

	_, err := api.lifecycle.AdvanceStatus(t.Context(), domain.Actor{ID: api.specialist.ID, Role: domain.RoleSpecialist}, q1.ID, domain.StatusInProgress)
	require.NoError(t, err)

	t.Run("employee", func(t *testing.T) {
		rec := api.do(api.employee, stdhttp.MethodGet, "/api/v1/dashboard", nil)
		require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
		dashboard := decode[DashboardDTO](t, rec)

		assert.Equal(t, "employee", dashboard.Role)
		assert.Equal(t, 2, dashboard.Stats.Total)
		assert.Equal(t, 1, dashboard.Stats.Counts.Open)
		assert.Equal(t, 1, dashboard.Stats.Counts.InProgress)
		assert.Len(t, dashboard.Recent, 2)
		assert.Nil(t, dashboard.Users)
	})

	t.Run("specialist", func(t *testing.T) {
		rec := api.do(api.specialist, stdhttp.MethodGet, "/api/v1/dashboard", nil)
		require.Equal(t, stdhttp.StatusOK, rec.Code)
		dashboard := decode[DashboardDTO](t, rec)

		assert.Equal(t, 1, dashboard.Stats.Total)
		require.Len(t, dashboard.Employees, 1)
		assert.Equal(t, api.employee.ID, dashboard.Employees[0].UserID)
		assert.Equal(t, 1, dashboard.Employees[0].Pending)
	})

	t.Run("admin", func(t *testing.T) {
		rec := api.do(api.admin, stdhttp.MethodGet, "/api/v1/dashboard", nil)
		require.Equal(t, stdhttp.StatusOK, rec.Code)
		dashboard := decode[DashboardDTO](t, rec)

		assert.Equal(t, 3, dashboard.Stats.Total)
		assert.Len(t, dashboard.Specialists, 2)
		require.NotNil(t, dashboard.Users)
		assert.Equal(t, 5, dashboard.Users.Total)
		assert.Equal(t, 2, dashboard.Users.Specialists)
		for _, q := range dashboard.Recent {
			if q.Status == "open" {
				assert.Equal(t, []string{"assign"}, q.Actions)
			}
		}
	})
}

func TestDashboardHandler_Stats(t *testing.T) {
	api := newTestAPI(t)

	api.file(api.employee, "One")
	api.assign(api.file(api.employee, "Two"), api.specialist)
	api.file(api.employee2, "Three")

	rec := api.do(api.admin, stdhttp.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	stats := decode[domain.Stats](t, rec)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, stats.Total, stats.Counts.Total())
	assert.Zero(t, stats.CompletionRate)

	rec = api.do(api.admin, stdhttp.MethodGet, "/api/v1/stats?creatorId="+api.employee.ID.String()+"&status=open", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[domain.Stats](t, rec).Total)

	rec = api.do(api.employee2, stdhttp.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[domain.Stats](t, rec).Total)

	rec = api.do(api.employee2, stdhttp.MethodGet, "/api/v1/stats?creatorId="+api.employee.ID.String(), nil)
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
}
