package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/dto"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns every task owned by the current user, newest first
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), identity.ID)
	if err != nil {
		respondTaskError(c, err, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks))
}

// GetTask returns the task loaded by RequireTaskAccess
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{
		Success: true,
		Task:    dto.ToTaskDTO(*task),
	})
}

// CreateTask creates a task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := req.ToInput()
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), identity.ID, input)
	if err != nil {
		respondTaskError(c, err, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, dto.TaskResponse{
		Success: true,
		Message: "Task created successfully",
		Task:    dto.ToTaskDTO(*task),
	})
}

// UpdateTask applies a partial update to the task loaded by RequireTaskAccess
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := dto.ParseUpdateTaskRequest(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.taskService.ApplyUpdate(c.Request.Context(), task, input)
	if err != nil {
		respondTaskError(c, err, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{
		Success: true,
		Message: "Task updated successfully",
		Task:    dto.ToTaskDTO(*updated),
	})
}

// DeleteTask permanently deletes the task loaded by RequireTaskAccess
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.RemoveTask(c.Request.Context(), task); err != nil {
		respondTaskError(c, err, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Task deleted successfully",
	})
}

func respondTaskError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrDescriptionRequired):
		apierrors.BadRequest(c, "Title and description are required")
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTaskAccessDenied):
		apierrors.Forbidden(c, "Access denied")
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, fallback)
	}
}
