// Package bootstrap wires the process runtime shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"frontrow/internal/cache"
	"frontrow/internal/config"
	"frontrow/internal/database"
	"frontrow/internal/middleware"
	"frontrow/internal/models"
	"frontrow/internal/repository"
	"frontrow/internal/seed"
	"frontrow/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemo bool
}

// InitRuntime installs the process logger, connects to DB and Redis and
// optionally seeds demo data. A nil Redis client means Redis was unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	slog.SetDefault(middleware.Logger)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ensureDevRootAdmin(ctx, cfg, repository.NewUserRepository(db)); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedDemo {
		if _, err := seed.Seed(db, seed.DefaultOptions); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevRootAdmin creates or promotes the development root account.
// Outside development, or when DEV_BOOTSTRAP_ROOT is off, it does nothing.
func ensureDevRootAdmin(ctx context.Context, cfg *config.Config, users repository.UserRepository) error {
	if cfg == nil || users == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "frontrow_root"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	root, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if root != nil {
		if root.HasRole(models.RoleAdmin) {
			return nil
		}
		if err := users.AddRole(ctx, root.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("promote %s: %w", username, err)
		}
		middleware.Logger.Info("development root admin promoted", slog.String("username", username))
		return nil
	}

	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("DEV_ROOT_USERNAME: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("DEV_ROOT_PASSWORD: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	root = &models.User{Username: username, Password: string(hashedPassword)}
	if err := users.Create(ctx, root, models.RoleUser, models.RoleAdmin); err != nil {
		return err
	}

	middleware.Logger.Info("development root admin created",
		slog.String("username", username),
		slog.Any("user_id", root.ID),
	)
	return nil
}
