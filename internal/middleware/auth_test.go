package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"frontrow/internal/auth"
	"frontrow/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierStub struct {
	subjects map[string]string
}

func (v verifierStub) Verify(token string) (string, error) {
	if s, ok := v.subjects[token]; ok {
		return s, nil
	}
	return "", auth.ErrInvalidToken
}

type resolverStub struct {
	principals map[string]*models.Principal
	err        error
}

func (r resolverStub) Resolve(_ context.Context, subject string) (*models.Principal, error) {
	if r.err != nil {
		return nil, r.err
	}
	if p, ok := r.principals[subject]; ok {
		return p, nil
	}
	return nil, auth.ErrUnknownSubject
}

func newAuthApp(resolver PrincipalResolver) *fiber.App {
	tokens := verifierStub{subjects: map[string]string{
		"alice-token": "alice",
		"ghost-token": "ghost",
		"admin-token": "root",
	}}

	app := fiber.New()
	app.Use(Authenticate(tokens, resolver))
	app.Get("/public", func(c *fiber.Ctx) error {
		_, ok := auth.PrincipalFromContext(c.UserContext())
		return c.JSON(fiber.Map{"authenticated": ok})
	})
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		p, _ := auth.PrincipalFromContext(c.UserContext())
		uid, _ := c.UserContext().Value(UserIDKey).(uint)
		return c.JSON(fiber.Map{"username": p.Username, "uid": uid})
	})
	app.Delete("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthenticate(t *testing.T) {
	app := newAuthApp(resolverStub{principals: map[string]*models.Principal{
		"alice": {UserID: 7, Username: "alice", Roles: []string{models.RoleUser}},
		"root":  {UserID: 1, Username: "root", Roles: []string{models.RoleUser, models.RoleAdmin}},
	}})

	tests := []struct {
		name           string
		method         string
		path           string
		authHeader     string
		expectedStatus int
		expectedCode   string
	}{
		{"Public without token", http.MethodGet, "/public", "", http.StatusOK, ""},
		{"Public with bad token", http.MethodGet, "/public", "Bearer nope", http.StatusOK, ""},
		{"Protected happy path", http.MethodGet, "/me", "Bearer alice-token", http.StatusOK, ""},
		{"Lowercase scheme", http.MethodGet, "/me", "bearer alice-token", http.StatusOK, ""},
		{"Missing header", http.MethodGet, "/me", "", http.StatusUnauthorized, models.CodeUnauthenticated},
		{"Basic scheme", http.MethodGet, "/me", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, models.CodeUnauthenticated},
		{"Invalid token", http.MethodGet, "/me", "Bearer nope", http.StatusUnauthorized, models.CodeUnauthenticated},
		{"Deleted subject", http.MethodGet, "/me", "Bearer ghost-token", http.StatusUnauthorized, models.CodeUnauthenticated},
		{"Role missing", http.MethodDelete, "/admin", "Bearer alice-token", http.StatusForbidden, models.CodeForbidden},
		{"Role present", http.MethodDelete, "/admin", "Bearer admin-token", http.StatusNoContent, ""},
		{"Role without principal", http.MethodDelete, "/admin", "", http.StatusUnauthorized, models.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedCode != "" {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedCode, body.Code)
			}
		})
	}
}

func TestAuthenticate_SetsLoggingUserID(t *testing.T) {
	app := newAuthApp(resolverStub{principals: map[string]*models.Principal{
		"alice": {UserID: 7, Username: "alice"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Username string `json:"username"`
		UID      uint   `json:"uid"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "alice", body.Username)
	assert.Equal(t, uint(7), body.UID)
}

func TestAuthenticate_StoreFailureIsInternal(t *testing.T) {
	app := newAuthApp(resolverStub{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, models.CodeInternal, body.Code)
	assert.NotContains(t, body.Error, "db down")
}
