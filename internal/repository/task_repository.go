package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/task-manager-api/internal/database"
	"github.com/yukikurage/task-manager-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// ListByOwner retrieves all tasks owned by ownerID
func (r *GormTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).Scopes(database.OwnedBy(ownerID)).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update writes every mutable field of an existing task. It never inserts:
// a task deleted since it was loaded yields ErrNotFound.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", task.ID).
		Select("*").
		Omit("id", "owner_id", "created_at").
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports changed rows, so an identical write also lands here.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete hard deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
