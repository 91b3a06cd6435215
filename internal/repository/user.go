// Package repository provides the credential store and aggregate persistence.
package repository

import (
	"context"
	"errors"

	"frontrow/internal/models"

	"gorm.io/gorm"
)

// UserFilter narrows ListUsers. Empty slices mean no constraint.
type UserFilter struct {
	IDs       []uint
	Usernames []string
	Limit     int
	Offset    int
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]*models.User, error)
	Create(ctx context.Context, user *models.User, roles ...string) error
	Update(ctx context.Context, user *models.User) error
	UpdateUsername(ctx context.Context, id uint, username string) error
	AddRole(ctx context.Context, id uint, role string) error
	RemoveRole(ctx context.Context, id uint, role string) error
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
	Delete(ctx context.Context, id uint) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID returns the user with roles, or nil when no such user exists.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns the user with roles, or nil when no such user exists.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Roles").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	limit, offset := normalizePage(filter.Limit, filter.Offset)

	q := r.db.WithContext(ctx).Model(&models.User{})
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if len(filter.Usernames) > 0 {
		q = q.Where("username IN ?", filter.Usernames)
	}

	var users []*models.User
	err := q.Preload("Roles").Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, err
}

// Create inserts the user and links the named roles. A taken username yields
// ErrDuplicate.
func (r *userRepository) Create(ctx context.Context, user *models.User, roles ...string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(roles) > 0 {
			var found []models.Role
			if err := tx.Where("name IN ?", roles).Find(&found).Error; err != nil {
				return err
			}
			if len(found) != len(roles) {
				return errors.New("unknown role")
			}
			user.Roles = found
		}
		if err := tx.Omit("Roles.*").Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
}

// Update writes the mutable profile fields (password, image).
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: user.ID}).
		Select("password", "image").
		Updates(map[string]any{"password": user.Password, "image": user.Image})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) UpdateUsername(ctx context.Context, id uint, username string) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Update("username", username)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) AddRole(ctx context.Context, id uint, role string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rl models.Role
		if err := tx.Where("name = ?", role).First(&rl).Error; err != nil {
			return err
		}
		user := models.User{ID: id}
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Roles").Append(&rl)
	})
}

func (r *userRepository) RemoveRole(ctx context.Context, id uint, role string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rl models.Role
		if err := tx.Where("name = ?", role).First(&rl).Error; err != nil {
			return err
		}
		user := models.User{ID: id}
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Roles").Delete(&rl)
	})
}

func (r *userRepository) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", role).
		Preload("Roles").
		Order("users.id ASC").
		Find(&users).Error
	return users, err
}

// Delete removes the user in one transaction: likes the user gave, the user's
// comments and posts with everything they own, then the role links and
// finally the user row.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{ID: id}
		if err := lockForUpdate(tx).First(&user, id).Error; err != nil {
			return err
		}

		ownPosts := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		doomedComments := tx.Model(&models.Comment{}).Select("id").
			Where("author_id = ? OR post_id IN (?)", id, ownPosts)

		if err := tx.Where("user_id = ? OR comment_id IN (?)", id, doomedComments).
			Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ? OR post_id IN (?)", id, ownPosts).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR post_id IN (?)", id, ownPosts).
			Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}
