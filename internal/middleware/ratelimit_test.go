package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		allowed bool
		wantErr bool
	}{
		{name: "Test environment bypass", env: "test", allowed: true},
		{name: "Development environment bypass", env: "development", allowed: true},
		{name: "Empty environment bypass", env: "", allowed: true},
		{name: "Nil redis in production", env: "production", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := NewRateLimiter(nil, tt.env).Allow(context.Background(), "login", "ip:1", 1, time.Minute)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, allowed)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestRateLimiter_Counts(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()
	limiter := NewRateLimiter(rdb, "production")

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "login", "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, err := limiter.Allow(ctx, "login", "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:1"))

	mr.FastForward(time.Minute + time.Second)
	allowed, err = limiter.Allow(ctx, "login", "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	do := func(app *fiber.App, path string) int {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("Bypass in test mode", func(t *testing.T) {
		app := fiber.New()
		app.Get("/test", NewRateLimiter(nil, "test").Limit(1, time.Minute), ok)
		assert.Equal(t, http.StatusOK, do(app, "/test"))
	})

	t.Run("FailOpen with nil redis in production", func(t *testing.T) {
		app := fiber.New()
		app.Get("/test", NewRateLimiter(nil, "production").Limit(1, time.Minute), ok)
		assert.Equal(t, http.StatusOK, do(app, "/test"))
	})

	t.Run("FailClosed with nil redis in production", func(t *testing.T) {
		app := fiber.New()
		app.Get("/sensitive", NewRateLimiter(nil, "production").LimitWithPolicy(1, time.Minute, FailClosed), ok)
		assert.Equal(t, http.StatusServiceUnavailable, do(app, "/sensitive"))
	})

	t.Run("Configured env wins over process env", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		app := fiber.New()
		app.Get("/register", NewRateLimiter(rdb, "production").Limit(1, time.Minute, "register"), ok)
		assert.Equal(t, http.StatusOK, do(app, "/register"))
		assert.Equal(t, http.StatusTooManyRequests, do(app, "/register"))
	})

	t.Run("Limit exceeded", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		app := fiber.New()
		app.Get("/login", NewRateLimiter(rdb, "production").Limit(2, time.Minute, "auth_login"), ok)
		assert.Equal(t, http.StatusOK, do(app, "/login"))
		assert.Equal(t, http.StatusOK, do(app, "/login"))
		assert.Equal(t, http.StatusTooManyRequests, do(app, "/login"))
	})
}
