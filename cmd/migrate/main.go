package main

import (
	"log"

	"github.com/equipviz/backend/internal/config"
	"github.com/equipviz/backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to database
	db.Connect(cfg.Database)

	// Run migrations
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(db.DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("✅ Database migrations completed successfully!")
}
