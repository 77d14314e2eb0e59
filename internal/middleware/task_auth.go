package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter and checks that
// the caller owns it. It runs before any request body is read, so a caller
// who does not own the task gets 403 whatever the payload.
func RequireTaskAccess(taskService *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		task, err := taskService.GetTask(c.Request.Context(), identity.ID, c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTaskNotFound):
				apierrors.NotFound(c, "Task not found")
			case errors.Is(err, services.ErrTaskAccessDenied):
				apierrors.Forbidden(c, "Access denied")
			default:
				_ = c.Error(err)
				apierrors.InternalError(c, "Failed to fetch task")
			}
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
