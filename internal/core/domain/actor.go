package domain

import "github.com/google/uuid"

// Actor is the authenticated identity performing an operation.
// It is always passed explicitly into the core.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool      { return a.Role == RoleAdmin }
func (a Actor) IsSpecialist() bool { return a.Role == RoleSpecialist }
func (a Actor) IsEmployee() bool   { return a.Role == RoleEmployee }
