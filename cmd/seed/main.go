package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/equipviz/backend/internal/config"
	"github.com/equipviz/backend/internal/db"
	"github.com/equipviz/backend/internal/services"
)

// UserData represents the structure of users in the JSON file
type UserData struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// JSONData represents the structure of the JSON files
type JSONData struct {
	Users []UserData `json:"users"`
}

// Usage: seed [sample.csv ...]
// Creates the configured API user and any users in data/initial-users.json,
// then loads each CSV argument as an upload.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to database
	db.Connect(cfg.Database)

	// Run migrations first
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(db.DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	ctx := context.Background()
	auth := services.NewAuthService(db.DB, cfg.Auth.JWTSecret)

	users := []UserData{{Username: cfg.Auth.Username, Password: cfg.Auth.Password}}
	extra, err := loadUsers("data/initial-users.json")
	if err != nil {
		log.Printf("⚠️  Skipping users file: %v", err)
	}
	users = append(users, extra...)

	for _, u := range users {
		if u.Username == "" || u.Password == "" {
			log.Printf("Skipping user entry with empty username or password")
			continue
		}
		_, created, err := auth.EnsureUser(ctx, u.Username, u.Password)
		switch {
		case err != nil:
			log.Printf("Error creating user %s: %v", u.Username, err)
		case created:
			log.Printf("✅ Created user: %s", u.Username)
		default:
			log.Printf("⚠️  User already exists: %s", u.Username)
		}
	}

	summaries := services.NewSummaryService(db.DB, cfg.Upload.RetentionLimit)
	uploads := services.NewUploadService(summaries)
	for _, path := range os.Args[1:] {
		if err := seedUpload(ctx, uploads, path); err != nil {
			log.Printf("Error loading %s: %v", path, err)
			continue
		}
		log.Printf("✅ Loaded upload: %s", path)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func loadUsers(path string) ([]UserData, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var jsonData JSONData
	if err := json.Unmarshal(data, &jsonData); err != nil {
		return nil, err
	}
	return jsonData.Users, nil
}

func seedUpload(ctx context.Context, uploads *services.UploadService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = uploads.ProcessCSV(ctx, filepath.Base(path), f)
	return err
}
