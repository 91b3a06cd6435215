// Package main provides ADMIN role management for frontrow.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"frontrow/internal/config"
	"frontrow/internal/database"
	"frontrow/internal/models"
	"frontrow/internal/repository"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <user_id>     - Grant the ADMIN role")
		fmt.Println("  go run ./cmd/admin demote <user_id>      - Revoke the ADMIN role")
		fmt.Println("  go run ./cmd/admin list-admins           - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	command := os.Args[1]

	switch command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id>\n", command)
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil || id == 0 {
			fmt.Printf("Invalid user ID: %s\n", os.Args[2])
			os.Exit(1)
		}
		setAdmin(ctx, users, uint(id), command == "promote")

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users repository.UserRepository, id uint, grant bool) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	if user == nil {
		fmt.Printf("User with ID %d not found\n", id)
		os.Exit(1)
	}

	if user.HasRole(models.RoleAdmin) == grant {
		if grant {
			fmt.Printf("User %s (ID: %d) is already an admin\n", user.Username, user.ID)
		} else {
			fmt.Printf("User %s (ID: %d) is not an admin\n", user.Username, user.ID)
		}
		return
	}

	if grant {
		err = users.AddRole(ctx, id, models.RoleAdmin)
	} else {
		err = users.RemoveRole(ctx, id, models.RoleAdmin)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Printf("User with ID %d not found\n", id)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Failed to update roles: %v", err)
	}

	if grant {
		fmt.Printf("✅ Successfully promoted %s (ID: %d) to admin\n", user.Username, user.ID)
	} else {
		fmt.Printf("✅ Successfully demoted %s (ID: %d) from admin\n", user.Username, user.ID)
	}
}

func listAdmins(ctx context.Context, users repository.UserRepository) {
	admins, err := users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s\n", admin.ID, admin.Username)
	}
	fmt.Println("─────────────────────────────────────")
}
