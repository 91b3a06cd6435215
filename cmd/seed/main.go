// Command main runs the database seeder for frontrow.
package main

import (
	"flag"
	"log"

	"frontrow/internal/config"
	"frontrow/internal/database"
	"frontrow/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts-per-user", opts.PostsPerUser, "Posts created for each user")
	flag.IntVar(&opts.MaxCommentsPerPost, "comments", opts.MaxCommentsPerPost, "Maximum comments per post")
	flag.IntVar(&opts.LikePercent, "like-percent", opts.LikePercent, "Chance (0-100) that a user likes a post")
	flag.IntVar(&opts.MaxDays, "days", opts.MaxDays, "Spread post dates over this many days")
	flag.BoolVar(&opts.ShouldClean, "clean", true, "Clean database before seeding")
	flag.BoolVar(&opts.SkipBcrypt, "fast", false, "Store the plain password instead of a bcrypt hash (local only)")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Generate data without writing to the database")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts each, clean=%v\n", opts.NumUsers, opts.PostsPerUser, opts.ShouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sum, err := seed.Seed(db, opts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! users=%d posts=%d comments=%d likes=%d", sum.Users, sum.Posts, sum.Comments, sum.Likes)
	log.Printf("🔑 All seeded users have the password: %s", seed.DefaultPassword)
}
