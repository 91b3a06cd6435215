package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"frontrow/internal/auth"
	"frontrow/internal/models"
	"frontrow/internal/repository"
	"frontrow/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// PrincipalResolver turns a token subject into the current principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, subject string) (*models.Principal, error)
}

type AuthService struct {
	users    repository.UserRepository
	tokens   Tokens
	resolver PrincipalResolver
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is a freshly issued token with the user it names.
type AuthResult struct {
	Token *auth.Token  `json:"token"`
	User  *models.User `json:"user"`
}

func NewAuthService(users repository.UserRepository, tokens Tokens, resolver PrincipalResolver) *AuthService {
	return &AuthService{users: users, tokens: tokens, resolver: resolver}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", models.NewValidationError("password is too long")
	}
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

func usernameTaken(username string) *models.AppError {
	return models.NewConflictError("Username is already taken.", map[string]any{"username": username})
}

// Register creates a USER account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, finish := track(ctx, "auth_service", "register")
	defer finish(&err)

	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, internal(err)
	}
	if exists {
		return nil, usernameTaken(username)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user = &models.User{Username: username, Password: hash}
	if err := s.users.Create(ctx, user, models.RoleUser); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, usernameTaken(username)
		}
		return nil, internal(err)
	}
	return user, nil
}

// Login checks credentials and issues a token. Unknown users and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	loginFailed := models.NewUnauthenticatedError("Login has failed.")

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		dummyHashOnce.Do(func() {
			dummyHash, _ = bcrypt.GenerateFromPassword([]byte("frontrow-dummy-password"), bcryptCost)
		})
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(in.Password))
		return nil, loginFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, loginFailed
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// ValidateToken verifies token and resolves its subject.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.Principal, error) {
	invalid := models.NewUnauthenticatedError("Token is invalid or expired.")

	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, invalid
	}
	p, err := s.resolver.Resolve(ctx, subject)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownSubject) {
			return nil, invalid
		}
		return nil, internal(err)
	}
	return p, nil
}
