package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
)

func TestQueryTypeRepository_SeededCatalog(t *testing.T) {
	repos := newTestRepos(t)

	types, err := repos.queryTypes.List(context.Background())
	require.NoError(t, err)

	names := make(map[string]bool, len(types))
	for _, qt := range types {
		names[qt.Name] = qt.IsActive
	}
	for _, seeded := range domain.DefaultQueryTypes {
		assert.True(t, names[seeded], "seeded type %s should exist and be active", seeded)
	}
}

func TestQueryTypeRepository_CreateIsCaseInsensitiveUnique(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	qt, err := domain.NewQueryType("Printers " + uuid.NewString()[:8])
	require.NoError(t, err)

	created, err := repos.queryTypes.Create(ctx, qt)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.IsActive)

	dup, err := domain.NewQueryType(strings.ToUpper(qt.Name))
	require.NoError(t, err)
	_, err = repos.queryTypes.Create(ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrQueryTypeExists)
}

func TestQueryTypeRepository_SetActive(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	qt, err := domain.NewQueryType("Phones " + uuid.NewString()[:8])
	require.NoError(t, err)
	created, err := repos.queryTypes.Create(ctx, qt)
	require.NoError(t, err)

	updated, err := repos.queryTypes.SetActive(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	fetched, err := repos.queryTypes.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsActive)

	_, err = repos.queryTypes.SetActive(ctx, -1, true)
	assert.ErrorIs(t, err, apperrors.ErrQueryTypeNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
