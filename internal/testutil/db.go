// db.go - In-memory database helpers for tests
package testutil

import (
	"testing"
	"time"

	"github.com/equipviz/backend/internal/config"
	"github.com/equipviz/backend/internal/db"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory SQLite database that lives for the test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// StepClock returns a clock that advances by step on every call.
func StepClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

// FixedClock always returns the same instant.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
