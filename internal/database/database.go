package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/edgefit-be/internal/models"
	_ "modernc.org/sqlite" // SQLite driver
)

// New opens the SQLite store and pings it within timeout.
// A store that cannot be reached yields models.ErrStoreUnavailable.
func New(dataSourceName string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(dataSourceName))
	if err != nil {
		return nil, errors.Join(models.ErrStoreUnavailable, fmt.Errorf("open db: %w", err))
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Join(models.ErrStoreUnavailable, fmt.Errorf("ping db: %w", err))
	}
	return db, nil
}

// dsn appends the connection pragmas. busy_timeout makes concurrent writers
// queue on SQLite's lock instead of failing with SQLITE_BUSY.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}
