package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
	"github.com/hongminglow/projectdesk/internal/storage/memory"
)

func TestEnsureSuperAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, EnsureSuperAdmin(ctx, store, " Root@Example.com ", "Sup3rsecret", zap.NewNop()))
	require.NoError(t, EnsureSuperAdmin(ctx, store, "root@example.com", "ignored", zap.NewNop()))

	users, total, err := store.ListUsers(ctx, storage.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, models.RoleSuperAdmin, users[0].Role)
	assert.Equal(t, "root@example.com", users[0].Email)
}

func TestEnsureSuperAdminRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.CreateUser(ctx, models.User{Email: "root@example.com", Name: "Owner", Role: models.RoleOwner, Status: models.UserActive})
	require.NoError(t, err)

	assert.Error(t, EnsureSuperAdmin(ctx, store, "root@example.com", "Sup3rsecret", zap.NewNop()))
}
