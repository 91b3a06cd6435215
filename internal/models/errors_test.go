package models

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Unauthenticated", NewUnauthenticatedError("no"), http.StatusUnauthorized},
		{"Forbidden", NewForbiddenError("no"), http.StatusForbidden},
		{"NotFound", NewNotFoundError("Post", 1), http.StatusNotFound},
		{"Conflict", NewConflictError("taken", nil), http.StatusConflict},
		{"Validation", NewValidationError("bad"), http.StatusBadRequest},
		{"RateLimited", NewRateLimitedError(), http.StatusTooManyRequests},
		{"Unavailable", NewUnavailableError("busy"), http.StatusServiceUnavailable},
		{"Internal", NewInternalError(errors.New("db down")), http.StatusInternalServerError},
		{"Plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestAppError_IsMatchesKind(t *testing.T) {
	err := NewNotFoundError("Comment", 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, NewNotFoundError("Comment", 8))
}

func respondBody(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return Respond(c, err) })

	resp, testErr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, testErr)
	defer func() { _ = resp.Body.Close() }()

	raw, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestRespond_Body(t *testing.T) {
	status, body := respondBody(t, NewNotFoundError("Post", 3))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post with ID 3 was not found.", body["error"])
	assert.Equal(t, CodeNotFound, body["code"])
	assert.Equal(t, map[string]any{"resource": "Post", "id": float64(3)}, body["params"])

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"error", "code", "params"}, keys)
}

func TestRespond_HidesInternalCause(t *testing.T) {
	status, body := respondBody(t, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"error": "Internal server error", "code": CodeInternal}, body)

	_, body = respondBody(t, NewInternalError(errors.New("pq: relation missing")))
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, body, "params")
}
