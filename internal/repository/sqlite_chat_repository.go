package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/isdelr/edgefit-be/internal/models"
)

// SQLiteChatRepository implements ChatRepository on SQLite.
type SQLiteChatRepository struct {
	db *sql.DB
	boundedStore
}

var _ ChatRepository = (*SQLiteChatRepository)(nil)

// NewSQLiteChatRepository creates a SQLiteChatRepository whose calls are bounded by timeout.
func NewSQLiteChatRepository(db *sql.DB, timeout time.Duration) *SQLiteChatRepository {
	return &SQLiteChatRepository{db: db, boundedStore: newBoundedStore(timeout)}
}

// CreateChatRecord stores one chat exchange.
func (r *SQLiteChatRepository) CreateChatRecord(ctx context.Context, record models.ChatRecord) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chat_history (id, username, prompt, response, created_at) VALUES (?, ?, ?, ?, ?)",
		record.ID, record.Username, record.Prompt, record.Response, record.CreatedAt.UTC(),
	)
	if err != nil {
		return unavailable("insert chat record", err)
	}
	return nil
}

// ListChatRecords returns the most recent chat records of username, newest first.
func (r *SQLiteChatRepository) ListChatRecords(ctx context.Context, username string, limit int) ([]models.ChatRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, username, prompt, response, created_at FROM chat_history WHERE username = ? ORDER BY created_at DESC LIMIT ?",
		username, limit,
	)
	if err != nil {
		return nil, unavailable("query chat records", err)
	}
	defer rows.Close()

	records := []models.ChatRecord{}
	for rows.Next() {
		var rec models.ChatRecord
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Prompt, &rec.Response, &rec.CreatedAt); err != nil {
			return nil, unavailable("scan chat record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate chat records", err)
	}
	return records, nil
}

// DeleteChatRecordsBefore removes chat records created before cutoff.
func (r *SQLiteChatRepository) DeleteChatRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, "DELETE FROM chat_history WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, unavailable("delete chat records", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("delete chat records", err)
	}
	return n, nil
}

// CreateInteraction stores a client-saved prompt/response pair.
func (r *SQLiteChatRepository) CreateInteraction(ctx context.Context, interaction models.LLMInteraction) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO llm_data (id, prompt, response, created_at) VALUES (?, ?, ?, ?)",
		interaction.ID, interaction.Prompt, interaction.Response, interaction.CreatedAt.UTC(),
	)
	if err != nil {
		return unavailable("insert interaction", err)
	}
	return nil
}
