package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:            "development",
		Port:           "8080",
		TokenTTL:       7 * 24 * time.Hour,
		DBDriver:       "postgres",
		DBPassword:     "secure-password",
		DBSSLMode:      "require",
		WorkerPoolSize: 8,
		RequestTimeout: time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Development with generated key", func(_ *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Zero token TTL", func(c *Config) { c.TokenTTL = 0 }, true},
		{"Zero worker pool", func(c *Config) { c.WorkerPoolSize = 0 }, true},
		{"Zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"SQLite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"Production without secret", func(c *Config) { c.Env = "production" }, true},
		{"Production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production with short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "too-short"
		}, true},
		{"Production with weak DB password", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "secure-secret-at-least-32-chars-long"
			c.DBPassword = "password"
		}, true},
		{"Production ok", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "secure-secret-at-least-32-chars-long"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9999")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("WORKER_POOL_SIZE", "4")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, 3*time.Second, c.RequestTimeout)
	assert.Equal(t, 4, c.WorkerPoolSize)
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL)
	assert.Equal(t, "frontrow-api", c.TokenIssuer)
	assert.False(t, c.IsProduction())
}
