package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager-api/internal/auth"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeVerifier accepts "<name>-token" for every known name.
type fakeVerifier map[string]auth.Identity

func (f fakeVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	switch token {
	case "expired-token":
		return nil, auth.ErrExpiredToken
	case "unavailable-token":
		return nil, auth.ErrVerifierUnavailable
	}
	id, ok := f[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &id, nil
}

var testIdentities = fakeVerifier{
	"alice-token": {ID: "uid-alice", Email: "alice@example.com", DisplayName: "Alice", AvatarURL: "https://example.com/alice.png"},
	"bob-token":   {ID: "uid-bob", Email: "bob@example.com", DisplayName: "Bob"},
}

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	taskService *services.TaskService
	authService *services.AuthService
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()

	// Create in-memory SQLite database
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	// Run migrations
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))

	taskService := services.NewTaskService(repository.NewTaskRepository(db))
	authService := services.NewAuthService(repository.NewUserRepository(db), testIdentities, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	requireAuth := middleware.RequireAuth(testIdentities, discard, nil)
	requireTaskAccess := middleware.RequireTaskAccess(taskService)

	authHandler := NewAuthHandler(authService)
	taskHandler := NewTaskHandler(taskService)

	r.POST("/api/auth/google", authHandler.GoogleLogin)
	r.GET("/api/auth/me", requireAuth, authHandler.GetCurrentUser)
	tasks := r.Group("/api/tasks", requireAuth)
	tasks.GET("", taskHandler.ListTasks)
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("/:id", requireTaskAccess, taskHandler.GetTask)
	tasks.PUT("/:id", requireTaskAccess, taskHandler.UpdateTask)
	tasks.DELETE("/:id", requireTaskAccess, taskHandler.DeleteTask)

	return testEnv{
		db:          db,
		router:      r,
		taskService: taskService,
		authService: authService,
	}
}

func (env testEnv) do(method, url, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func decodeInto(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
