package bootstrap

import (
	"context"
	"testing"

	"frontrow/internal/config"
	"frontrow/internal/models"
	"frontrow/internal/repository"
	"frontrow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootConfig() *config.Config {
	return &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootUsername:  "frontrow_root",
		DevRootPassword:  "Rootpass1",
	}
}

func TestEnsureDevRootAdmin_Creates(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, ensureDevRootAdmin(ctx, rootConfig(), users))
	require.NoError(t, ensureDevRootAdmin(ctx, rootConfig(), users), "second run is a no-op")

	root, err := users.GetByUsername(ctx, "frontrow_root")
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.True(t, root.HasRole(models.RoleAdmin))
	assert.True(t, root.HasRole(models.RoleUser))
}

func TestEnsureDevRootAdmin_PromotesExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	testutil.CreateUser(t, db, "frontrow_root")

	require.NoError(t, ensureDevRootAdmin(context.Background(), rootConfig(), users))

	root, err := users.GetByUsername(context.Background(), "frontrow_root")
	require.NoError(t, err)
	assert.True(t, root.HasRole(models.RoleAdmin))
}

func TestEnsureDevRootAdmin_Skips(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	prod := rootConfig()
	prod.Env = "production"
	require.NoError(t, ensureDevRootAdmin(ctx, prod, users))

	off := rootConfig()
	off.DevBootstrapRoot = false
	require.NoError(t, ensureDevRootAdmin(ctx, off, users))

	admins, err := users.ListByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestEnsureDevRootAdmin_RequiresPassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	cfg := rootConfig()
	cfg.DevRootPassword = ""

	assert.Error(t, ensureDevRootAdmin(context.Background(), cfg, repository.NewUserRepository(db)))

	cfg.DevRootPassword = "weak"
	assert.Error(t, ensureDevRootAdmin(context.Background(), cfg, repository.NewUserRepository(db)))
}
