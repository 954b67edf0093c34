//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/securecicd/backend/internal/auth"
	"github.com/securecicd/backend/internal/database"
	"github.com/securecicd/backend/internal/database/models"
	"github.com/securecicd/backend/pkg/config"
	"github.com/securecicd/backend/pkg/crypto"
	"github.com/securecicd/backend/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		log.Fatalf("failed to create encryptor: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	githubClient := auth.NewGitHubClient(cfg.OAuth)
	authService := auth.NewService(db, jwtService, githubClient, encryptor, cfg.OAuth.GoogleAudiences())

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}
	if name == "" {
		name = "Admin"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	// Demo project so the dashboard is not empty on first login
	project := models.Project{
		OwnerID:       resp.User.ID,
		Name:          "sample-service",
		RepositoryURL: "https://github.com/example/sample-service",
		Description:   "Demo project seeded for local development",
		Language:      "go",
	}
	if err := db.Create(&project).Error; err != nil {
		log.Fatalf("failed to create demo project: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Token: %s\n", resp.Token)
}
