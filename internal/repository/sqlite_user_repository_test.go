package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/isdelr/edgefit-be/internal/database"
	"github.com/isdelr/edgefit-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteUserRepository(setupDB(t), time.Second)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "$2a$hash"}))

	got, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "$2a$hash", got.PasswordHash)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewSQLiteUserRepository(setupDB(t), time.Second)

	_, err := repo.GetUserByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestUserRepository_Duplicate(t *testing.T) {
	repo := NewSQLiteUserRepository(setupDB(t), time.Second)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "h1"}))
	err := repo.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "h2"})
	require.ErrorIs(t, err, models.ErrUsernameTaken)

	got, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.PasswordHash)
}

func TestUserRepository_ConcurrentDuplicate(t *testing.T) {
	repo := NewSQLiteUserRepository(setupDB(t), 5*time.Second)
	ctx := context.Background()

	const workers = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ok    int
		taken int
		other []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "h"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, models.ErrUsernameTaken):
				taken++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, taken)
}

func newMockUserRepo(t *testing.T) (*SQLiteUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteUserRepository(db, 50*time.Millisecond), mock
}

func TestUserRepository_QueryFailureIsUnavailable(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT username, password_hash, created_at FROM users WHERE username = ?")).
		WithArgs("alice").
		WillReturnError(errors.New("disk I/O error"))

	_, err := repo.GetUserByUsername(context.Background(), "alice")
	require.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, models.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_InsertFailureIsUnavailable(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)")).
		WithArgs("alice", "h", sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))

	err := repo.CreateUser(context.Background(), models.User{Username: "alice", PasswordHash: "h"})
	require.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, models.ErrUsernameTaken)
}

func TestUserRepository_TimeoutIsUnavailable(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT username, password_hash, created_at FROM users WHERE username = ?")).
		WithArgs("alice").
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "created_at"}))

	start := time.Now()
	_, err := repo.GetUserByUsername(context.Background(), "alice")
	require.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}
