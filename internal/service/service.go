// Package service implements the mutation engine and the authentication
// operations on top of the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"frontrow/internal/auth"
	"frontrow/internal/locks"
	"frontrow/internal/models"
	"frontrow/internal/notifications"
	"frontrow/internal/observability"
	"frontrow/internal/repository"

	"gorm.io/gorm"
)

// Publisher delivers activity events to a user.
type Publisher interface {
	PublishEvent(ctx context.Context, userID uint, ev notifications.Event) error
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	Issue(subject string) (*auth.Token, error)
	Verify(token string) (string, error)
}

// Lock kinds; keys are "<kind>:<id>".
const (
	lockPost    = "post"
	lockComment = "comment"
	lockUser    = "user"
)

// engine carries what every mutating service shares.
type engine struct {
	locks     *locks.Keyed
	publisher Publisher
	now       func() time.Time
}

func newEngine(keyed *locks.Keyed, publisher Publisher) engine {
	if keyed == nil {
		keyed = locks.NewKeyed()
	}
	return engine{locks: keyed, publisher: publisher, now: time.Now}
}

func requirePrincipal(ctx context.Context) (*models.Principal, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, models.NewUnauthenticatedError("User was not authenticated.")
	}
	return p, nil
}

func requireRole(ctx context.Context, role string) (*models.Principal, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if !p.HasRole(role) {
		return nil, models.NewForbiddenError("Insufficient role.")
	}
	return p, nil
}

// lock takes the per-aggregate lock, bounded by ctx.
func (e *engine) lock(ctx context.Context, kind string, id uint) (func(), error) {
	start := time.Now()
	unlock, err := e.locks.Lock(ctx, fmt.Sprintf("%s:%d", kind, id))
	observability.ObserveLockWait(kind, start)
	if err != nil {
		return nil, unavailable(err)
	}
	return unlock, nil
}

// notify publishes ev to userID unless the actor is the recipient.
// Delivery problems are logged and otherwise ignored.
func (e *engine) notify(ctx context.Context, userID uint, ev notifications.Event) {
	if e.publisher == nil || userID == ev.ActorID {
		return
	}
	if err := e.publisher.PublishEvent(ctx, userID, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish notification",
			slog.String("type", ev.Type),
			slog.Uint64("recipient_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
}

// track opens a span for a mutation and returns a func that closes it and
// counts the outcome. Call it as `defer finish(&err)`.
func track(ctx context.Context, svc, op string) (context.Context, func(*error)) {
	ctx, span := observability.GetTraceLayer().TraceService(ctx, svc, op)
	return ctx, func(errp *error) {
		defer span.End()

		err := *errp
		outcome := observability.OutcomeOK
		switch {
		case err == nil:
		case isRejection(err):
			outcome = observability.OutcomeRejected
			slog.InfoContext(ctx, "mutation rejected", slog.String("operation", op), slog.String("reason", err.Error()))
		default:
			outcome = observability.OutcomeError
			span.SetError(err)
			slog.ErrorContext(ctx, "mutation failed", slog.String("operation", op), slog.String("error", err.Error()))
		}
		span.SetOutcome(outcome)
		observability.RecordMutation(op, outcome)
	}
}

func isRejection(err error) bool {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code != models.CodeInternal && appErr.Code != models.CodeUnavailable
}

func unavailable(err error) *models.AppError {
	return &models.AppError{
		Code:    models.CodeUnavailable,
		Message: "The request timed out.",
		Err:     err,
	}
}

// storeError classifies a repository failure. Missing rows become NotFound
// for resource/id, a caller deleted mid-request Unauthenticated, context
// expiry Unavailable, the rest Internal.
func storeError(err error, resource string, id uint) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, repository.ErrUnknownUser):
		return models.NewUnauthenticatedError("User was not authenticated.")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return unavailable(err)
	default:
		return models.NewInternalError(err)
	}
}

func internal(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return unavailable(err)
	}
	return models.NewInternalError(err)
}
