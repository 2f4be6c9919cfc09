package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
)

// User field limits
const (
	MaxNameLength  = 255
	MaxEmailLength = 255
)

// Role determines which queries a user sees and which transitions they may trigger.
type Role string

const (
	RoleEmployee   Role = "employee"
	RoleSpecialist Role = "specialist"
	RoleAdmin      Role = "admin"
)

// AllRoles lists the roles in display order.
var AllRoles = []Role{RoleEmployee, RoleSpecialist, RoleAdmin}

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", apperrors.ErrInvalidRole
	}
	return role, nil
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleSpecialist, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
}

// IsSpecialist reports whether the user can be bound to a query as its assignee.
func (u *User) IsSpecialist() bool {
	return u.Role == RoleSpecialist
}

// UserParams holds parameters for creating a user
type UserParams struct {
	Name  string
	Email string
	Role  Role
}

// Validate validates user creation parameters
func (p *UserParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs.Add("name", "Name is required")
	} else if len(name) > MaxNameLength {
		errs.Add("name", "Name must be 255 characters or less")
	}

	if p.Email == "" {
		errs.Add("email", "Email is required")
	} else if len(p.Email) > MaxEmailLength {
		errs.Add("email", "Email must be 255 characters or less")
	} else if !ValidEmail(p.Email) {
		errs.Add("email", "Invalid email format")
	}

	if !p.Role.IsValid() {
		errs.Add("role", "Role must be one of: employee, specialist, admin")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidEmail reports whether email is a bare address. The display-name form
// ("Sam <sam@example.com>") that net/mail also accepts is rejected.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// NewUser creates a new active user with validated parameters
func NewUser(params UserParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(params.Name),
		Email:     strings.ToLower(strings.TrimSpace(params.Email)),
		Role:      params.Role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UserUpdate changes a user's profile. Nil fields keep their current value.
// The role is fixed at creation.
type UserUpdate struct {
	Name  *string
	Email *string
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil
}

// Apply returns a copy of user with the update applied, validated and
// normalized the same way NewUser normalizes a new account.
func (u UserUpdate) Apply(user User) (*User, error) {
	params := UserParams{Name: user.Name, Email: user.Email, Role: user.Role}
	if u.Name != nil {
		params.Name = *u.Name
	}
	if u.Email != nil {
		params.Email = *u.Email
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(params.Name)
	user.Email = strings.ToLower(strings.TrimSpace(params.Email))
	return &user, nil
}
