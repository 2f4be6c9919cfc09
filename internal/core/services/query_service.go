package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// QueryService implements role-scoped reads.
type QueryService struct {
	queries ports.QueryRepository
}

var _ ports.QueryService = (*QueryService)(nil)

func NewQueryService(queries ports.QueryRepository) ports.QueryService {
	return &QueryService{queries: queries}
}

// List returns the queries visible to actor that match filter, newest first.
func (s *QueryService) List(ctx context.Context, actor domain.Actor, filter ports.QueryFilter) ([]*domain.Query, error) {
	scoped, err := ScopeFilter(actor, filter)
	if err != nil {
		return nil, err
	}
	return s.queries.List(ctx, scoped)
}

// Get fetches one query. A query outside actor's scope is reported as not
// found so its existence is not disclosed.
func (s *QueryService) Get(ctx context.Context, actor domain.Actor, queryID uuid.UUID) (*domain.Query, error) {
	query, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if !CanSee(actor, query) {
		return nil, apperrors.ErrQueryNotFound
	}
	return query, nil
}
