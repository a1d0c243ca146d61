package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/edgefit-be/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteUserRepository implements UserRepository on SQLite. Username
// uniqueness is enforced by the table's primary key.
type SQLiteUserRepository struct {
	db *sql.DB
	boundedStore
}

var _ UserRepository = (*SQLiteUserRepository)(nil)

// NewSQLiteUserRepository creates a SQLiteUserRepository whose calls are bounded by timeout.
func NewSQLiteUserRepository(db *sql.DB, timeout time.Duration) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db, boundedStore: newBoundedStore(timeout)}
}

// GetUserByUsername retrieves a user including the password hash.
func (r *SQLiteUserRepository) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.db.QueryRowContext(ctx,
		"SELECT username, password_hash, created_at FROM users WHERE username = ?",
		username,
	).Scan(&user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, unavailable("query user", err)
	}
	return user, nil
}

// CreateUser inserts a new user.
func (r *SQLiteUserRepository) CreateUser(ctx context.Context, user models.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		user.Username, user.PasswordHash, user.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user: %w", models.ErrUsernameTaken)
		}
		return unavailable("insert user", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
