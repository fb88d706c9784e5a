package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/bloodbank/internal/logging"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
)

// EnsureAdmin makes sure the account with the given email exists and has
// the Admin role.  An existing account keeps its password; only the role
// is raised.  Registration never grants Admin, so this is the way the
// first administrator is created.
func EnsureAdmin(ctx context.Context, users *repository.UserRepo, email, password string, cost int, log logging.Logger) error {
	if email == "" {
		return nil
	}
	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		id, err := users.Create(ctx, repository.NewUser{
			Name:     "Administrator",
			Email:    email,
			Password: password,
			Role:     model.RoleAdmin,
		}, cost)
		if err != nil {
			return fmt.Errorf("create bootstrap admin: %w", err)
		}
		log.Info(ctx, "bootstrap admin created", "user_id", id, "email", email)
		return nil
	case err != nil:
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	if u.Role == model.RoleAdmin {
		return nil
	}
	if err := users.UpdateRole(ctx, u.ID, model.RoleAdmin); err != nil {
		return fmt.Errorf("promote bootstrap admin: %w", err)
	}
	log.Info(ctx, "bootstrap admin promoted", "user_id", u.ID, "previous_role", u.Role.String())
	return nil
}
