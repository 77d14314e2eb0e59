package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errConnRefused = errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))
	return db
}

func setupMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true, Logger: logger.Discard})
	require.NoError(t, err)

	return db, mock
}

func TestTaskRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupSQLite(t))

	task := &models.Task{OwnerID: "owner-1", Title: "Buy milk", Description: "2% milk from store"}
	require.NoError(t, repo.Create(ctx, task))
	require.NotEmpty(t, task.ID)

	found, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", found.Title)
	assert.Equal(t, models.TaskStatusPending, found.Status)
	assert.Equal(t, models.TaskPriorityMedium, found.Priority)
	assert.Nil(t, found.Deadline)

	deadline := time.Date(2030, 1, 2, 15, 4, 0, 0, time.UTC)
	found.Deadline = &deadline
	found.Status = models.TaskStatusCompleted
	require.NoError(t, repo.Update(ctx, found))

	reloaded, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.Deadline)
	assert.True(t, deadline.Equal(*reloaded.Deadline))

	reloaded.Deadline = nil
	require.NoError(t, repo.Update(ctx, reloaded))
	cleared, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.Deadline)

	require.NoError(t, repo.Delete(ctx, task.ID))
	_, err = repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), ErrNotFound)
}

func TestTaskRepository_UpdateNeverInserts(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupSQLite(t))

	task := &models.Task{OwnerID: "owner-1", Title: "Buy milk", Description: "2% milk from store"}
	require.NoError(t, repo.Create(ctx, task))
	loaded, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)

	// An identical write still succeeds.
	require.NoError(t, repo.Update(ctx, loaded))

	require.NoError(t, repo.Delete(ctx, task.ID))
	loaded.Title = "Buy oat milk"
	assert.ErrorIs(t, repo.Update(ctx, loaded), ErrNotFound)

	_, err = repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	tasks, err := repo.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepository_UpdateUnchangedRowOnMySQL(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTaskRepository(db)
	task := &models.Task{ID: "task-1", OwnerID: "owner-1", Title: "t", Description: "d"}

	mock.ExpectExec("UPDATE `tasks` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	assert.NoError(t, repo.Update(context.Background(), task))

	mock.ExpectExec("UPDATE `tasks` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	assert.ErrorIs(t, repo.Update(context.Background(), task), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListByOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupSQLite(t))

	require.NoError(t, repo.Create(ctx, &models.Task{OwnerID: "alice", Title: "first", Description: "alice task one"}))
	require.NoError(t, repo.Create(ctx, &models.Task{OwnerID: "bob", Title: "second", Description: "bob task one"}))
	require.NoError(t, repo.Create(ctx, &models.Task{OwnerID: "alice", Title: "third", Description: "alice task two"}))

	tasks, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, "alice", task.OwnerID)
	}

	none, err := repo.ListByOwner(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUserRepository_UpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupSQLite(t))

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &models.User{
		ID:          "uid-1",
		Email:       "old@example.com",
		DisplayName: "Old",
		CreatedAt:   first,
		LastLoginAt: first,
	}))

	second := first.Add(48 * time.Hour)
	require.NoError(t, repo.Upsert(ctx, &models.User{
		ID:          "uid-1",
		Email:       "new@example.com",
		DisplayName: "New",
		AvatarURL:   "https://example.com/a.png",
		CreatedAt:   second,
		LastLoginAt: second,
	}))

	user, err := repo.FindByID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "New", user.DisplayName)
	assert.Equal(t, "https://example.com/a.png", user.AvatarURL)
	assert.True(t, first.Equal(user.CreatedAt))
	assert.True(t, second.Equal(user.LastLoginAt))

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	db, mock := setupMock(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM `tasks`").WillReturnError(errConnRefused)
	_, err := repo.FindByID(ctx, "task-1")
	assert.ErrorIs(t, err, errConnRefused)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery("SELECT (.+) FROM `tasks`").WillReturnError(errConnRefused)
	_, err = repo.ListByOwner(ctx, "owner-1")
	assert.ErrorIs(t, err, errConnRefused)

	mock.ExpectExec("INSERT INTO `tasks`").WillReturnError(errConnRefused)
	err = repo.Create(ctx, &models.Task{OwnerID: "owner-1", Title: "t", Description: "d"})
	assert.ErrorIs(t, err, errConnRefused)

	mock.ExpectExec("UPDATE `tasks` SET").WillReturnError(errConnRefused)
	err = repo.Update(ctx, &models.Task{ID: "task-1", OwnerID: "owner-1", Title: "t", Description: "d"})
	assert.ErrorIs(t, err, errConnRefused)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectExec("DELETE FROM `tasks`").WillReturnError(errConnRefused)
	assert.ErrorIs(t, repo.Delete(ctx, "task-1"), errConnRefused)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_FindByIDNotFound(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM `tasks`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_StoreUnavailable(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO `users`").WillReturnError(errConnRefused)
	err := repo.Upsert(context.Background(), &models.User{ID: "uid-1"})
	assert.ErrorIs(t, err, errConnRefused)

	mock.ExpectQuery("SELECT (.+) FROM `users`").WillReturnError(errConnRefused)
	_, err = repo.FindByID(context.Background(), "uid-1")
	assert.ErrorIs(t, err, errConnRefused)

	assert.NoError(t, mock.ExpectationsWereMet())
}
