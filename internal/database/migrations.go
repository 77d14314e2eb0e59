package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/task-manager-api/internal/models"
	"gorm.io/gorm"
)

// requiredIndexes lists the indexes the owner-scoped queries depend on.
// Each entry must be declared in the model's gorm tags.
var requiredIndexes = []struct {
	model any
	name  string
}{
	{&models.Task{}, "idx_tasks_owner_created"},
}

// Migrate creates or updates the users and tasks collections.
func Migrate(db *gorm.DB) error {
	slog.Info("Running database migrations...")
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := EnsureIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	slog.Info("Database migrations completed")
	return nil
}

// EnsureIndexes creates any required index missing from an existing table.
func EnsureIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range requiredIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			slog.Debug("Index already exists, skipping", "index", idx.name)
			continue
		}
		if err := migrator.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		slog.Info("Created index", "index", idx.name)
	}
	return nil
}
