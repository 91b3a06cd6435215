// Package middleware provides the Fiber middleware chain: authentication,
// logging, tracing, metrics, rate limiting and load shedding.
package middleware

import (
	"context"
	"errors"

	"frontrow/internal/auth"
	"frontrow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// PrincipalResolver turns a token subject into the current principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, subject string) (*models.Principal, error)
}

// Authenticate attaches the principal for a valid bearer token. Requests
// without a usable token continue unauthenticated; RequireAuth rejects them
// where a principal is needed.
func Authenticate(tokens TokenVerifier, resolver PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return c.Next()
		}

		subject, err := tokens.Verify(raw)
		if err != nil {
			AuthFailures.WithLabelValues("invalid_token").Inc()
			return c.Next()
		}

		principal, err := resolver.Resolve(c.UserContext(), subject)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownSubject) {
				AuthFailures.WithLabelValues("unknown_subject").Inc()
				return c.Next()
			}
			AuthFailures.WithLabelValues("store_error").Inc()
			Logger.ErrorContext(c.UserContext(), "principal resolution failed", "error", err)
			return models.Respond(c, models.NewInternalError(err))
		}

		ctx := auth.WithPrincipal(c.UserContext(), principal)
		ctx = context.WithValue(ctx, UserIDKey, principal.UserID)
		c.SetUserContext(ctx)
		c.Locals("principal", principal)
		c.Locals("userID", principal.UserID)

		return c.Next()
	}
}

// RequireAuth rejects requests that carry no principal.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := auth.PrincipalFromContext(c.UserContext()); !ok {
			return models.Respond(c, models.NewUnauthenticatedError("User was not authenticated."))
		}
		return c.Next()
	}
}

// RequireRole rejects principals lacking role. It implies RequireAuth.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := auth.PrincipalFromContext(c.UserContext())
		if !ok {
			return models.Respond(c, models.NewUnauthenticatedError("User was not authenticated."))
		}
		if !p.HasRole(role) {
			return models.Respond(c, models.NewForbiddenError("Insufficient role."))
		}
		return c.Next()
	}
}
