package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// EnsureAdmin creates an active admin with the given email unless a user
// with that email already exists. It reports whether a user was created.
func EnsureAdmin(ctx context.Context, users ports.UserRepository, name, email string) (bool, error) {
	admin, err := domain.NewUser(domain.UserParams{Name: name, Email: email, Role: domain.RoleAdmin})
	if err != nil {
		return false, err
	}

	if _, err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrUserExists) {
			return false, nil
		}
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	return true, nil
}
