package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/hpungsan/medmastery/internal/errors"
)

// GetValue returns the document stored under key.
// A missing key yields a NOT_FOUND error.
func GetValue(ctx context.Context, db *sql.DB, key string) ([]byte, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("key", key)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return []byte(value), nil
}

// PutValue stores value under key, replacing any existing document.
func PutValue(ctx context.Context, db *sql.DB, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, key, string(value), time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
