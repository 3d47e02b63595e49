package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/gema-grader/internal/models"
)

const sqliteScheme = "sqlite://"

// Open connects to the grading result log. URLs starting with sqlite:// open a
// local SQLite file; anything else is treated as a PostgreSQL DSN.
func Open(url string) (*gorm.DB, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("database url must not be empty")
	}

	config := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if strings.HasPrefix(url, sqliteScheme) {
		path := strings.TrimPrefix(url, sqliteScheme)
		if path == "" {
			return nil, fmt.Errorf("sqlite url must include a file path")
		}
		db, err := gorm.Open(sqlite.Open(path), config)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(url), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the result log schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.GradingResult{}); err != nil {
		return fmt.Errorf("failed to migrate grading results: %w", err)
	}
	return nil
}
