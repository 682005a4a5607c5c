package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// EnsureSuperAdmin creates the platform superadmin when no account uses
// email yet. An existing account with that email must already be one.
func EnsureSuperAdmin(ctx context.Context, store storage.Store, email, password string, logger *zap.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != models.RoleSuperAdmin {
			return fmt.Errorf("superadmin email %s belongs to a %s account", email, existing.Role)
		}
		return nil
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("look up superadmin: %w", err)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return fmt.Errorf("superadmin password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash superadmin password: %w", err)
	}
	user, err := store.CreateUser(ctx, models.User{
		Email:        email,
		Name:         "Superadmin",
		Role:         models.RoleSuperAdmin,
		Status:       models.UserActive,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create superadmin: %w", err)
	}
	logger.Info("superadmin created", zap.String("user_id", user.ID))
	return nil
}
