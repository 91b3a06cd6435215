package service

import (
	"context"
	"errors"
	"strings"

	"frontrow/internal/auth"
	"frontrow/internal/locks"
	"frontrow/internal/models"
	"frontrow/internal/repository"
	"frontrow/internal/validation"
)

type UserService struct {
	engine
	userRepo repository.UserRepository
	tokens   Tokens
}

// ListUsersInput selects users by Query: "" (all), "id" or "username".
type ListUsersInput struct {
	Query     string
	Parameter string
	Limit     int
	Offset    int
}

func NewUserService(userRepo repository.UserRepository, tokens Tokens, keyed *locks.Keyed) *UserService {
	return &UserService{
		engine:   newEngine(keyed, nil),
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *UserService) loadUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.loadUser(ctx, id)
}

// GetMe returns the caller's current account.
func (s *UserService) GetMe(ctx context.Context) (*models.User, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadUser(ctx, p.UserID)
}

func (s *UserService) ListUsers(ctx context.Context, in ListUsersInput) ([]*models.User, error) {
	filter := repository.UserFilter{Limit: in.Limit, Offset: in.Offset}

	switch strings.ToLower(strings.TrimSpace(in.Query)) {
	case "":
	case QueryID:
		ids, err := parseIDList(in.Parameter)
		if err != nil {
			return nil, err
		}
		filter.IDs = ids
	case QueryUsername:
		names := splitList(in.Parameter)
		if len(names) == 0 {
			return nil, models.NewValidationError("At least one username is required.")
		}
		filter.Usernames = names
	default:
		return nil, models.NewValidationError("Unknown query '" + in.Query + "'; use id or username.")
	}

	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return users, nil
}

// DeleteUser removes an account and everything it owns. ADMIN only.
func (s *UserService) DeleteUser(ctx context.Context, id uint) (user *models.User, err error) {
	ctx, finish := track(ctx, "user_service", "delete_user")
	defer finish(&err)

	if _, err := requireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, lockUser, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	user, err = s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return nil, storeError(err, "User", id)
	}
	return user, nil
}

// ChangeUsername renames the caller and returns a token for the new name.
// The previous token stops resolving.
func (s *UserService) ChangeUsername(ctx context.Context, newUsername string) (token *auth.Token, err error) {
	ctx, finish := track(ctx, "user_service", "change_username")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	newUsername = strings.TrimSpace(newUsername)
	if err := validation.ValidateUsername(newUsername); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	unlock, err := s.lock(ctx, lockUser, p.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	user, err := s.loadUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	if user.Username != newUsername {
		taken, err := s.userRepo.ExistsByUsername(ctx, newUsername)
		if err != nil {
			return nil, internal(err)
		}
		if taken {
			return nil, usernameTaken(newUsername)
		}
		if err := s.userRepo.UpdateUsername(ctx, user.ID, newUsername); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, usernameTaken(newUsername)
			}
			return nil, storeError(err, "User", user.ID)
		}
	}

	token, err = s.tokens.Issue(newUsername)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return token, nil
}

// ChangePassword stores a new bcrypt hash for the caller.
func (s *UserService) ChangePassword(ctx context.Context, newPassword string) (err error) {
	ctx, finish := track(ctx, "user_service", "change_password")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.updateProfile(ctx, p.UserID, func(u *models.User) { u.Password = hash })
}

// ChangeImage sets the caller's avatar URL.
func (s *UserService) ChangeImage(ctx context.Context, image string) (user *models.User, err error) {
	ctx, finish := track(ctx, "user_service", "change_image")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	image = strings.TrimSpace(image)
	if err := validation.ValidateImageURL(image); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.updateProfile(ctx, p.UserID, func(u *models.User) { u.Image = image }); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, p.UserID)
}

func (s *UserService) updateProfile(ctx context.Context, id uint, apply func(*models.User)) error {
	unlock, err := s.lock(ctx, lockUser, id)
	if err != nil {
		return err
	}
	defer unlock()

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return err
	}
	apply(user)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return storeError(err, "User", id)
	}
	return nil
}
