package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/isdelr/edgefit-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatRepo(t *testing.T, users ...string) *SQLiteChatRepository {
	t.Helper()
	db := setupDB(t)
	userRepo := NewSQLiteUserRepository(db, time.Second)
	for _, u := range users {
		require.NoError(t, userRepo.CreateUser(context.Background(), models.User{Username: u, PasswordHash: "h"}))
	}
	return NewSQLiteChatRepository(db, time.Second)
}

func record(username, prompt string, at time.Time) models.ChatRecord {
	return models.ChatRecord{
		ID:        uuid.NewString(),
		Username:  username,
		Prompt:    prompt,
		Response:  "re: " + prompt,
		CreatedAt: at,
	}
}

func TestChatRepository_ListNewestFirst(t *testing.T) {
	repo := newChatRepo(t, "alice", "bob")
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateChatRecord(ctx, record("alice", "first", base)))
	require.NoError(t, repo.CreateChatRecord(ctx, record("alice", "second", base.Add(time.Minute))))
	require.NoError(t, repo.CreateChatRecord(ctx, record("alice", "third", base.Add(2*time.Minute))))
	require.NoError(t, repo.CreateChatRecord(ctx, record("bob", "other", base)))

	got, err := repo.ListChatRecords(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Prompt)
	assert.Equal(t, "second", got[1].Prompt)
	assert.Equal(t, "re: third", got[0].Response)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestChatRepository_ListEmpty(t *testing.T) {
	repo := newChatRepo(t, "alice")

	got, err := repo.ListChatRecords(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestChatRepository_DeleteBefore(t *testing.T) {
	repo := newChatRepo(t, "alice")
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateChatRecord(ctx, record("alice", "old", now.Add(-72*time.Hour))))
	require.NoError(t, repo.CreateChatRecord(ctx, record("alice", "older", now.Add(-96*time.Hour))))
	require.NoError(t, repo.CreateChatRecord(ctx, record("alice", "fresh", now.Add(-time.Hour))))

	n, err := repo.DeleteChatRecordsBefore(ctx, now.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := repo.ListChatRecords(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Prompt)
}

func TestChatRepository_CreateInteraction(t *testing.T) {
	repo := newChatRepo(t)
	ctx := context.Background()

	err := repo.CreateInteraction(ctx, models.LLMInteraction{
		ID:        uuid.NewString(),
		Prompt:    "p",
		Response:  "r",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM llm_data WHERE prompt = 'p'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestChatRepository_FailuresAreUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewSQLiteChatRepository(db, time.Second)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chat_history")).WillReturnError(errors.New("boom"))
	require.ErrorIs(t, repo.CreateChatRecord(ctx, record("alice", "p", time.Now())), models.ErrStoreUnavailable)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, prompt, response, created_at FROM chat_history")).
		WillReturnError(errors.New("boom"))
	_, err = repo.ListChatRecords(ctx, "alice", 5)
	require.ErrorIs(t, err, models.ErrStoreUnavailable)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chat_history")).WillReturnError(errors.New("boom"))
	_, err = repo.DeleteChatRecordsBefore(ctx, time.Now())
	require.ErrorIs(t, err, models.ErrStoreUnavailable)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO llm_data")).WillReturnError(errors.New("boom"))
	require.ErrorIs(t, repo.CreateInteraction(ctx, models.LLMInteraction{ID: "x"}), models.ErrStoreUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}
