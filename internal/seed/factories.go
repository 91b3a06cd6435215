// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"frontrow/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	// synthetic ID counter when running in DryRun mode
	nextID   uint
	userRole *models.Role
	hash     string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.hash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		f.hash = string(hashed)
	}
	return f.hash, nil
}

func (f *Factory) role() (*models.Role, error) {
	if f.userRole != nil {
		return f.userRole, nil
	}
	var role models.Role
	if err := f.db.Where("name = ?", models.RoleUser).First(&role).Error; err != nil {
		return nil, fmt.Errorf("load %s role: %w", models.RoleUser, err)
	}
	f.userRole = &role
	return f.userRole, nil
}

// fakeUsername returns a name that passes username validation.
func fakeUsername() string {
	var sb strings.Builder
	for _, r := range strings.ToLower(gofakeit.Username()) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || (sb.Len() > 0 && r == '_') {
			sb.WriteRune(r)
		}
		if sb.Len() >= 20 {
			break
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("user")
	}
	return fmt.Sprintf("%s%d", sb.String(), gofakeit.Number(100, 99999))
}

// BuildPost constructs a post for user without persisting it. Dates are
// spread over the last MaxDays days.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	now := time.Now().UTC()

	post := &models.Post{
		AuthorID:    user.ID,
		Description: gofakeit.Paragraph(1, gofakeit.Number(1, 4), 12, " "),
		Date:        gofakeit.DateRange(now.Add(-time.Duration(maxDays)*24*time.Hour), now).UTC(),
	}
	if gofakeit.Number(0, 2) == 0 {
		post.Link = gofakeit.URL()
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreateUser constructs and persists a sample `models.User` with the USER role.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	password, err := f.password()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: fakeUsername(),
		Password: password,
		Image:    fmt.Sprintf("https://picsum.photos/seed/%s/150/150.jpg", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	role, err := f.role()
	if err != nil {
		return nil, err
	}
	user.Roles = []models.Role{*role}
	if err := f.db.Omit("Roles.*").Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.Omit("Author", "Likes", "Comments").CreateInBatches(posts, batch).Error
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: user.ID,
		Content:  gofakeit.Sentence(gofakeit.Number(3, 14)),
		Date:     gofakeit.DateRange(post.Date, time.Now().UTC()).UTC(),
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}

	if err := f.db.Omit("Author", "Likes").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// LikePost persists a like from `user` on `post`.
func (f *Factory) LikePost(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.PostLike{PostID: post.ID, UserID: user.ID}).Error
}

// LikeComment persists a like from `user` on `comment`.
func (f *Factory) LikeComment(user *models.User, comment *models.Comment) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.CommentLike{CommentID: comment.ID, UserID: user.ID}).Error
}
