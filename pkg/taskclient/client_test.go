package taskclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-manager-api/internal/auth"
	"github.com/yukikurage/task-manager-api/internal/database"
	"github.com/yukikurage/task-manager-api/internal/metrics"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/router"
	"github.com/yukikurage/task-manager-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubProvider map[string]auth.Identity

func (p stubProvider) Verify(_ context.Context, token string) (*auth.Identity, error) {
	id, ok := p[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &id, nil
}

// ClientTestSuite runs the client against the real router backed by SQLite.
type ClientTestSuite struct {
	suite.Suite
	ctx    context.Context
	server *httptest.Server
	tokens *auth.TokenManager
	client *Client
}

func (suite *ClientTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.ctx = context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	suite.Require().NoError(err)
	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.T().Cleanup(func() { sqlDB.Close() })
	suite.Require().NoError(database.Migrate(db))

	provider := stubProvider{
		"google-alice": {ID: "uid-alice", Email: "alice@example.com", DisplayName: "Alice"},
		"google-bob":   {ID: "uid-bob", Email: "bob@example.com", DisplayName: "Bob"},
	}
	suite.tokens = auth.NewTokenManager(auth.SessionTokenConfig{SecretKey: "secret", TTL: time.Hour, Issuer: "task-manager-api"})

	reg := prometheus.NewRegistry()
	engine := router.New(router.Deps{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:     metrics.NewWithRegistry(reg, reg),
		Verifier:    auth.ChainVerifier{suite.tokens, provider},
		AuthService: services.NewAuthService(repository.NewUserRepository(db), provider, suite.tokens),
		TaskService: services.NewTaskService(repository.NewTaskRepository(db)),
	})

	suite.server = httptest.NewServer(engine)
	suite.T().Cleanup(suite.server.Close)
	suite.client = New(suite.server.URL + "/")
}

func (suite *ClientTestSuite) TestLoginStoresSessionToken() {
	result, err := suite.client.Login(suite.ctx, "google-alice")
	suite.Require().NoError(err)
	suite.Equal("uid-alice", result.User.ID)
	suite.NotEmpty(result.Token)
	suite.Equal(result.Token, suite.client.Token())

	user, err := suite.client.Me(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("alice@example.com", user.Email)
}

func (suite *ClientTestSuite) TestTaskLifecycle() {
	_, err := suite.client.Login(suite.ctx, "google-alice")
	suite.Require().NoError(err)

	deadline := time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)
	created, err := suite.client.CreateTask(suite.ctx, TaskDraft{
		Title:       "Buy milk",
		Description: "2% milk from store",
		Priority:    PriorityHigh,
		Deadline:    &deadline,
	})
	suite.Require().NoError(err)
	suite.Equal(StatusPending, created.Status)
	suite.Equal(PriorityHigh, created.Priority)
	suite.Require().NotNil(created.Deadline)
	suite.True(deadline.Equal(*created.Deadline))

	got, err := suite.client.GetTask(suite.ctx, created.ID)
	suite.Require().NoError(err)
	suite.Equal(created.ID, got.ID)

	status := StatusCompleted
	updated, err := suite.client.UpdateTask(suite.ctx, created.ID, TaskPatch{Status: &status})
	suite.Require().NoError(err)
	suite.Equal(StatusCompleted, updated.Status)
	suite.NotNil(updated.Deadline)

	updated, err = suite.client.UpdateTask(suite.ctx, created.ID, TaskPatch{ClearDeadline: true})
	suite.Require().NoError(err)
	suite.Nil(updated.Deadline)

	tasks, err := suite.client.ListTasks(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(tasks, 1)

	suite.Require().NoError(suite.client.DeleteTask(suite.ctx, created.ID))

	err = suite.client.DeleteTask(suite.ctx, created.ID)
	var apiErr *APIError
	suite.Require().ErrorAs(err, &apiErr)
	suite.Equal(http.StatusNotFound, apiErr.StatusCode)
	suite.Equal("NOT_FOUND", apiErr.Code)
}

func (suite *ClientTestSuite) TestForeignTaskIsForbidden() {
	alice := New(suite.server.URL)
	_, err := alice.Login(suite.ctx, "google-alice")
	suite.Require().NoError(err)
	task, err := alice.CreateTask(suite.ctx, TaskDraft{Title: "Private", Description: "Alice only task"})
	suite.Require().NoError(err)

	bob := New(suite.server.URL)
	_, err = bob.Login(suite.ctx, "google-bob")
	suite.Require().NoError(err)

	_, err = bob.GetTask(suite.ctx, task.ID)
	var apiErr *APIError
	suite.Require().ErrorAs(err, &apiErr)
	suite.Equal(http.StatusForbidden, apiErr.StatusCode)
}

func (suite *ClientTestSuite) TestSessionInitAndTeardownOnUnauthorized() {
	session := NewSession(suite.client)

	_, err := session.Init(suite.ctx)
	suite.ErrorIs(err, ErrNoCredential)
	suite.False(session.Active())

	_, err = session.Login(suite.ctx, "google-alice")
	suite.Require().NoError(err)
	suite.True(session.Active())

	user, err := session.Init(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal("uid-alice", user.ID)

	suite.client.SetToken("revoked")
	_, err = suite.client.ListTasks(suite.ctx)
	suite.True(IsUnauthorized(err))
	suite.False(session.Active())
	suite.Empty(suite.client.Token())
}

func (suite *ClientTestSuite) TestLoginRejected() {
	session := NewSession(suite.client)

	_, err := session.Login(suite.ctx, "forged")
	suite.True(IsUnauthorized(err))
	suite.False(session.Active())
	suite.Empty(suite.client.Token())
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestTaskPatchMarshal(t *testing.T) {
	title := "New"
	data, err := TaskPatch{Title: &title}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"New"}`, string(data))

	data, err = TaskPatch{ClearDeadline: true}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"deadline":null}`, string(data))

	deadline := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("JST", 9*3600))
	data, err = TaskPatch{Deadline: &deadline}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"deadline":"2025-01-01T18:04:05Z"}`, string(data))
}

func TestAPIErrorFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	_, err := New(server.URL, WithToken("t")).ListTasks(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.False(t, IsUnauthorized(err))
}
