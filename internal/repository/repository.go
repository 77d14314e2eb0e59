package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/task-manager-api/internal/models"
)

// ErrNotFound is returned when no document exists for the requested key.
var ErrNotFound = errors.New("repository: record not found")

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create stores a new task; the store assigns its ID
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID regardless of owner
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// ListByOwner returns every task belonging to ownerID, in no particular order
	ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error)

	// Update overwrites every field of an existing task
	Update(ctx context.Context, task *models.Task) error

	// Delete permanently removes a task
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Upsert inserts the user, or refreshes profile claims and last login
	// of an existing one while keeping its original CreatedAt
	Upsert(ctx context.Context, user *models.User) error

	// FindByID finds a user by provider-issued ID
	FindByID(ctx context.Context, id string) (*models.User, error)
}
