package domain

import "github.com/google/uuid"

// StatusCounts holds the number of queries in each lifecycle state.
type StatusCounts struct {
	Open       int `json:"open"`
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Total returns the number of counted queries.
func (c StatusCounts) Total() int {
	return c.Open + c.Assigned + c.InProgress + c.Completed
}

// Pending returns the number of queries not yet completed.
func (c StatusCounts) Pending() int {
	return c.Total() - c.Completed
}

// Get returns the count for a single status.
func (c StatusCounts) Get(s QueryStatus) int {
	switch s {
	case StatusOpen:
		return c.Open
	case StatusAssigned:
		return c.Assigned
	case StatusInProgress:
		return c.InProgress
	case StatusCompleted:
		return c.Completed
	}
	return 0
}

// Workload summarises the queries grouped under one user.
// Pending is always Total - Completed.
type Workload struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// UserWorkload is a Workload keyed by the user it is grouped under.
type UserWorkload struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name,omitempty"`
	Email  string    `json:"email,omitempty"`
	Workload
}

// UserTotals counts directory users by role.
type UserTotals struct {
	Total       int `json:"total"`
	Employees   int `json:"employees"`
	Specialists int `json:"specialists"`
	Admins      int `json:"admins"`
}

// Stats is the status breakdown of a query set.
type Stats struct {
	Counts         StatusCounts `json:"counts"`
	Total          int          `json:"total"`
	Pending        int          `json:"pending"`
	CompletionRate float64      `json:"completionRate"`
}

// Dashboard is the role-specific overview shown after sign-in.
type Dashboard struct {
	Role        Role           `json:"role"`
	Stats       Stats          `json:"stats"`
	Recent      []*Query       `json:"recent"`
	Specialists []UserWorkload `json:"specialists,omitempty"`
	Employees   []UserWorkload `json:"employees,omitempty"`
	Users       *UserTotals    `json:"users,omitempty"`
}
