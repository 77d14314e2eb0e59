// Package router assembles the gin engine and its route table.
package router

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/auth"
	"github.com/yukikurage/task-manager-api/internal/handlers"
	"github.com/yukikurage/task-manager-api/internal/metrics"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/services"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Verifier       auth.Verifier
	AuthService    *services.AuthService
	TaskService    *services.TaskService
	AllowedOrigins []string
}

// New returns an engine serving the health, metrics, auth and task routes.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(d.Logger),
		middleware.Instrument(d.Metrics),
		cors.New(corsConfig(d.AllowedOrigins)),
	)

	authHandler := handlers.NewAuthHandler(d.AuthService)
	taskHandler := handlers.NewTaskHandler(d.TaskService)
	requireAuth := middleware.RequireAuth(d.Verifier, d.Logger, d.Metrics)
	requireTaskAccess := middleware.RequireTaskAccess(d.TaskService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Manager API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")
	{
		// Auth routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/google", authHandler.GoogleLogin)
			authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", requireTaskAccess, taskHandler.GetTask)
			tasks.PUT("/:id", requireTaskAccess, taskHandler.UpdateTask)
			tasks.DELETE("/:id", requireTaskAccess, taskHandler.DeleteTask)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
