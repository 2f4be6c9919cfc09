package services

import (
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// ScopeFilter narrows filter to what actor is allowed to see.
// Employees are pinned to their own queries and specialists to the queries
// assigned to them. Only admins may filter by creator or assignee.
func ScopeFilter(actor domain.Actor, filter ports.QueryFilter) (ports.QueryFilter, error) {
	if !actor.Role.IsValid() {
		return ports.QueryFilter{}, apperrors.ErrForbidden
	}
	if !actor.IsAdmin() && (filter.CreatorID != nil || filter.AssigneeID != nil) {
		return ports.QueryFilter{}, apperrors.ErrForbidden
	}

	scoped := filter
	switch actor.Role {
	case domain.RoleEmployee:
		id := actor.ID
		scoped.CreatorID = &id
	case domain.RoleSpecialist:
		id := actor.ID
		scoped.AssigneeID = &id
	}
	return scoped, nil
}

// CanSee reports whether q is inside actor's visibility scope.
func CanSee(actor domain.Actor, q *domain.Query) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleEmployee:
		return q.IsCreatedBy(actor.ID)
	case domain.RoleSpecialist:
		return q.IsAssignedTo(actor.ID)
	}
	return false
}

// ApplyFilter returns the queries from qs that actor may see and that match
// filter, preserving input order. Pagination fields are ignored.
func ApplyFilter(actor domain.Actor, filter ports.QueryFilter, qs []*domain.Query) ([]*domain.Query, error) {
	scoped, err := ScopeFilter(actor, filter)
	if err != nil {
		return nil, err
	}

	visible := make([]*domain.Query, 0, len(qs))
	for _, q := range qs {
		if CanSee(actor, q) && scoped.Matches(q) {
			visible = append(visible, q)
		}
	}
	return visible, nil
}

// PermittedActions lists the lifecycle actions actor may trigger on q.
// Employees are read-only on existing queries.
func PermittedActions(actor domain.Actor, q *domain.Query) []domain.Action {
	actions := []domain.Action{}
	if !CanSee(actor, q) {
		return actions
	}

	switch actor.Role {
	case domain.RoleAdmin:
		if q.Status == domain.StatusOpen {
			actions = append(actions, domain.ActionAssign)
		}
	case domain.RoleSpecialist:
		switch q.Status {
		case domain.StatusAssigned:
			actions = append(actions, domain.ActionStart)
		case domain.StatusInProgress:
			actions = append(actions, domain.ActionComplete)
		}
	}
	return actions
}
