package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskAccessDenied    = errors.New("access denied")
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrInvalidStatus       = errors.New("status must be one of Pending, In Progress, Completed")
	ErrInvalidPriority     = errors.New("priority must be one of Low, Medium, High")
)

// TaskService handles task business logic. Every operation is scoped to the
// owner resolved by the session boundary.
type TaskService struct {
	taskRepo repository.TaskRepository
	now      func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		now:      time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	Deadline    *time.Time
}

// UpdateTaskInput represents a partial update. Nil or blank fields are left
// untouched, except Deadline: when DeadlineSet is true the stored deadline is
// replaced by Deadline, and a nil Deadline clears it.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DeadlineSet bool
	Deadline    *time.Time
}

// CreateTask validates input, applies defaults and stores a new task owned by ownerID
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusPending
	} else if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	} else if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	now := models.Timestamp(s.now())
	task := &models.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		Deadline:    input.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// ListTasks returns all of ownerID's tasks, newest first
func (s *TaskService) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return tasks, nil
}

// GetTask returns the task if it exists and belongs to ownerID. Existence is
// checked before ownership.
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.OwnerID != ownerID {
		return nil, ErrTaskAccessDenied
	}

	return task, nil
}

// UpdateTask checks existence and ownership, then applies input
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	return s.ApplyUpdate(ctx, task, input)
}

// ApplyUpdate mutates a task already loaded through GetTask and persists it.
// UpdatedAt is refreshed even when no field changes.
func (s *TaskService) ApplyUpdate(ctx context.Context, task *models.Task, input UpdateTaskInput) (*models.Task, error) {
	if input.Status != nil && *input.Status != "" && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != nil && *input.Priority != "" && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	if v := trimmed(input.Title); v != "" {
		task.Title = v
	}
	if v := trimmed(input.Description); v != "" {
		task.Description = v
	}
	if input.Status != nil && *input.Status != "" {
		task.Status = *input.Status
	}
	if input.Priority != nil && *input.Priority != "" {
		task.Priority = *input.Priority
	}
	if input.DeadlineSet {
		task.Deadline = input.Deadline
	}
	task.UpdatedAt = models.Timestamp(s.now())

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteTask checks existence and ownership, then permanently removes the task
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	task, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return err
	}
	return s.RemoveTask(ctx, task)
}

// RemoveTask deletes a task already loaded through GetTask
func (s *TaskService) RemoveTask(ctx context.Context, task *models.Task) error {
	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
