package seed

import (
	"fmt"
	"log"

	"frontrow/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers           int
	PostsPerUser       int
	MaxCommentsPerPost int
	// LikePercent is the chance, 0-100, that a given user likes a given post.
	LikePercent int
	MaxDays     int
	BatchSize   int
	SkipBcrypt  bool
	DryRun      bool
	ShouldClean bool
}

// DefaultOptions is a small demo data set.
var DefaultOptions = Options{
	NumUsers:           25,
	PostsPerUser:       4,
	MaxCommentsPerPost: 5,
	LikePercent:        20,
	MaxDays:            90,
	BatchSize:          100,
}

// Summary counts what a Seed run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// Seed populates the database with demo users, posts, comments and likes.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("🌱 Starting database seeding with %d users...", opts.NumUsers)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)
	sum := &Summary{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)

	if len(users) == 0 {
		return sum, nil
	}

	posts := make([]*models.Post, 0, len(users)*opts.PostsPerUser)
	for _, u := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			posts = append(posts, f.BuildPost(u))
		}
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	sum.Posts = len(posts)
	log.Printf("✓ %d posts created", sum.Posts)

	for _, p := range posts {
		for i := gofakeit.Number(0, opts.MaxCommentsPerPost); i > 0; i-- {
			author := users[gofakeit.Number(0, len(users)-1)]
			if _, err := f.CreateComment(author, p); err != nil {
				return nil, fmt.Errorf("failed to create comment: %w", err)
			}
			sum.Comments++
		}

		for _, u := range users {
			if gofakeit.Number(1, 100) > opts.LikePercent {
				continue
			}
			if err := f.LikePost(u, p); err != nil {
				return nil, fmt.Errorf("failed to like post: %w", err)
			}
			sum.Likes++
		}
	}
	log.Printf("✓ %d comments and %d likes created", sum.Comments, sum.Likes)

	log.Println("🎉 Database seeding completed successfully!")
	return sum, nil
}

// clearData removes all content and accounts; roles are kept.
func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	for _, table := range []string{"comment_likes", "post_likes", "comments", "posts", "user_roles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
