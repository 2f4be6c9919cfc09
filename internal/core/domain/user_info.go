package domain

import "github.com/google/uuid"

// UserInfo is a lightweight projection for displaying user details.
type UserInfo struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Info projects the user for display next to aggregated statistics.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Email: u.Email}
}
