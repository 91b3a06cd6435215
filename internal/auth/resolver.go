package auth

import (
	"context"
	"errors"
	"fmt"

	"frontrow/internal/models"
)

// ErrUnknownSubject is returned when a token's subject no longer names a user.
var ErrUnknownSubject = errors.New("token subject does not resolve to a user")

// UserFinder is the part of the credential store the resolver needs.
// GetByUsername returns (nil, nil) when no user matches.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Resolver turns a verified token subject into a principal. It reads the
// store on every call so role changes are seen immediately.
type Resolver struct {
	users UserFinder
}

// NewResolver creates a resolver backed by users.
func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

// Resolve loads the user named by subject.
func (r *Resolver) Resolve(ctx context.Context, subject string) (*models.Principal, error) {
	user, err := r.users.GetByUsername(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("resolve subject: %w", err)
	}
	if user == nil {
		return nil, ErrUnknownSubject
	}
	return models.NewPrincipal(user), nil
}
