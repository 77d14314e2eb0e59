package dto

import (
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string              `json:"id"`
	OwnerID     string              `json:"ownerId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	Deadline    *time.Time          `json:"deadline,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// TaskResponse wraps a single task
type TaskResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Task    TaskDTO `json:"task"`
}

// TaskListResponse wraps the caller's full task list
type TaskListResponse struct {
	Success bool      `json:"success"`
	Count   int       `json:"count"`
	Tasks   []TaskDTO `json:"tasks"`
}

// MessageResponse is returned by operations with no payload
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	Deadline    *string `json:"deadline"`
}

// ToInput converts the request into service input. Only the deadline is
// parsed here; the service validates everything else.
func (r CreateTaskRequest) ToInput() (services.CreateTaskInput, error) {
	input := services.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      models.TaskStatus(r.Status),
		Priority:    models.TaskPriority(r.Priority),
	}
	if r.Deadline != nil {
		deadline, err := ParseDeadline(*r.Deadline)
		if err != nil {
			return input, err
		}
		input.Deadline = deadline
	}
	return input, nil
}

// ParseUpdateTaskRequest builds an update from a raw JSON object so that an
// explicit "deadline": null can be told apart from an absent key.
// Non-string title and description values are ignored.
func ParseUpdateTaskRequest(raw map[string]any) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if v, ok := raw["title"].(string); ok {
		input.Title = &v
	}
	if v, ok := raw["description"].(string); ok {
		input.Description = &v
	}
	if v, ok := raw["status"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return input, services.ErrInvalidStatus
		}
		status := models.TaskStatus(s)
		input.Status = &status
	}
	if v, ok := raw["priority"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return input, services.ErrInvalidPriority
		}
		priority := models.TaskPriority(s)
		input.Priority = &priority
	}

	if v, ok := raw["deadline"]; ok {
		input.DeadlineSet = true
		switch d := v.(type) {
		case nil:
		case string:
			deadline, err := ParseDeadline(d)
			if err != nil {
				return input, err
			}
			input.Deadline = deadline
		default:
			return input, ErrInvalidDeadline
		}
	}

	return input, nil
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		OwnerID:     task.OwnerID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Deadline:    task.Deadline,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskListResponse converts tasks to the list envelope
func ToTaskListResponse(tasks []models.Task) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Success: true,
		Count:   len(items),
		Tasks:   items,
	}
}
