package repository

import (
	"context"
	"errors"
	"time"

	"frontrow/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows List. Zero values mean no constraint; To is exclusive.
type PostFilter struct {
	IDs       []uint
	AuthorIDs []uint
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	AddLike(ctx context.Context, postID, userID uint) (bool, error)
	RemoveLike(ctx context.Context, postID, userID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func preloadPost(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Likes").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.date ASC, comments.id ASC")
		}).
		Preload("Comments.Author").
		Preload("Comments.Likes")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("Author", "Likes", "Comments").Create(post).Error
}

// GetByID loads the full aggregate, or returns nil when the post does not exist.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := preloadPost(r.db.WithContext(ctx)).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns matching posts newest first.
func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	limit, offset := normalizePage(filter.Limit, filter.Offset)

	q := r.db.WithContext(ctx).Model(&models.Post{})
	if len(filter.IDs) > 0 {
		q = q.Where("posts.id IN ?", filter.IDs)
	}
	if len(filter.AuthorIDs) > 0 {
		q = q.Where("posts.author_id IN ?", filter.AuthorIDs)
	}
	if filter.From != nil {
		q = q.Where("posts.date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("posts.date < ?", *filter.To)
	}

	var posts []*models.Post
	err := preloadPost(q).
		Order("posts.date DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// Update writes description and link.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Updates(map[string]any{"description": post.Description, "link": post.Link})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the post with its comments and every like on either.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&models.Post{}, id).Error; err != nil {
			return err
		}

		comments := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", comments).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}

// AddLike records userID's like. It reports false when the like already
// exists and gorm.ErrRecordNotFound when the post is gone.
func (r *postRepository) AddLike(ctx context.Context, postID, userID uint) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Select("id").First(&models.Post{}, postID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.PostLike{}).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			if isForeignKeyViolation(err) {
				return ErrUnknownUser
			}
			return err
		}
		added = true
		return nil
	})
	return added, err
}

// RemoveLike deletes userID's like. It reports false when there was none.
func (r *postRepository) RemoveLike(ctx context.Context, postID, userID uint) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Select("id").First(&models.Post{}, postID).Error; err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	return removed, err
}
