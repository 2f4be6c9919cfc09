package domain

import (
	"time"
)

// QuerySnapshot matches the API response shape for queries.
type QuerySnapshot struct {
	ID            string  `json:"id"`
	ProblemNumber int64   `json:"problemNumber"`
	QueryTypeID   int64   `json:"queryTypeId"`
	Title         string  `json:"title"`
	Status        string  `json:"status"`
	CreatorID     string  `json:"creatorId"`
	AssigneeID    *string `json:"assigneeId"`
	UpdatedAt     string  `json:"updatedAt"`
}

// NewQuerySnapshot builds a query snapshot from a domain query.
func NewQuerySnapshot(q *Query) QuerySnapshot {
	var assigneeID *string
	if q.AssigneeID != nil {
		value := q.AssigneeID.String()
		assigneeID = &value
	}

	return QuerySnapshot{
		ID:            q.ID.String(),
		ProblemNumber: q.ProblemNumber,
		QueryTypeID:   q.QueryTypeID,
		Title:         q.Title,
		Status:        string(q.Status),
		CreatorID:     q.CreatorID.String(),
		AssigneeID:    assigneeID,
		UpdatedAt:     q.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
