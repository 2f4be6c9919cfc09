package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
)

// Query field limits
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
)

// QueryStatus represents the possible states of a query.
type QueryStatus string

const (
	StatusOpen       QueryStatus = "open"
	StatusAssigned   QueryStatus = "assigned"
	StatusInProgress QueryStatus = "in_progress"
	StatusCompleted  QueryStatus = "completed"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []QueryStatus{StatusOpen, StatusAssigned, StatusInProgress, StatusCompleted}

// successors is the linear lifecycle. Open has no entry: it is only left through Assign.
var successors = map[QueryStatus]QueryStatus{
	StatusAssigned:   StatusInProgress,
	StatusInProgress: StatusCompleted,
}

// ParseQueryStatus converts user input into a QueryStatus.
func ParseQueryStatus(s string) (QueryStatus, error) {
	status := QueryStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", apperrors.ErrInvalidStatus
	}
	return status, nil
}

// IsValid reports whether s is one of the four lifecycle states.
func (s QueryStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s QueryStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// Next returns the unique status reachable through AdvanceStatus, if any.
func (s QueryStatus) Next() (QueryStatus, bool) {
	next, ok := successors[s]
	return next, ok
}

// Query is a single help-desk request tracked through its lifecycle.
type Query struct {
	ID            uuid.UUID
	ProblemNumber int64
	QueryTypeID   int64
	Title         string
	Description   string
	Status        QueryStatus
	CreatorID     uuid.UUID
	AssigneeID    *uuid.UUID
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// QueryParams holds parameters for creating a new query
type QueryParams struct {
	QueryTypeID int64
	Title       string
	Description string
	CreatorID   uuid.UUID
}

// Validate validates query creation parameters
func (p *QueryParams) Validate() error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return apperrors.ErrTitleRequired
	}
	if len(title) > MaxTitleLength {
		return apperrors.ErrTitleTooLong
	}
	if len(p.Description) > MaxDescriptionLength {
		return apperrors.ErrDescriptionTooLong
	}
	return nil
}

// NewQuery is a factory function to create a valid new query.
// The problem number is assigned by the store when the query is persisted.
func NewQuery(params QueryParams) (*Query, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Query{
		ID:          uuid.New(),
		QueryTypeID: params.QueryTypeID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Status:      StatusOpen,
		CreatorID:   params.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsCreatedBy checks if the given user filed the query.
func (q *Query) IsCreatedBy(userID uuid.UUID) bool {
	return q.CreatorID == userID
}

// IsAssignedTo checks if the query is bound to the given specialist.
func (q *Query) IsAssignedTo(userID uuid.UUID) bool {
	return q.AssigneeID != nil && *q.AssigneeID == userID
}

// IsAssigned reports whether a specialist is bound to the query.
func (q *Query) IsAssigned() bool {
	return q.AssigneeID != nil
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (q *Query) Clone() *Query {
	c := *q
	if q.AssigneeID != nil {
		id := *q.AssigneeID
		c.AssigneeID = &id
	}
	if q.CompletedAt != nil {
		t := *q.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Assign binds the query to a specialist. Only an open query can be assigned.
func (q *Query) Assign(specialistID uuid.UUID, now time.Time) error {
	if q.Status != StatusOpen || q.AssigneeID != nil {
		return apperrors.ErrInvalidTransition
	}
	q.AssigneeID = &specialistID
	q.Status = StatusAssigned
	q.UpdatedAt = now
	return nil
}

// Advance moves the query to target, which must be the unique successor of the current status.
func (q *Query) Advance(target QueryStatus, now time.Time) error {
	next, ok := q.Status.Next()
	if !ok || next != target {
		return apperrors.ErrInvalidTransition
	}
	q.Status = target
	q.UpdatedAt = now
	if target == StatusCompleted {
		completedAt := now
		q.CompletedAt = &completedAt
	}
	return nil
}

// CheckInvariant verifies that status and assignee agree.
func (q *Query) CheckInvariant() bool {
	return (q.Status == StatusOpen) == (q.AssigneeID == nil)
}
