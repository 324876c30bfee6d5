package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/rssalert/pkg/db"
)

// SQLite keeps state in the state table, see db.OpenSQLite
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite makes sqlite storage on an opened database
func NewSQLite(conn *sqlx.DB) *SQLite {
	return &SQLite{db: conn}
}

// Read returns the stored time for key or ErrNotFound
func (s *SQLite) Read(ctx context.Context, key string) (time.Time, error) {
	var ts int64
	err := db.Retry(ctx, func() error {
		return s.db.GetContext(ctx, &ts, `SELECT ts FROM state WHERE key = ?`, key)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("read %s: %w", key, err)
	}
	return time.Unix(0, ts).UTC(), nil
}

// Write stores ts for key
func (s *SQLite) Write(ctx context.Context, key string, ts time.Time) error {
	err := db.Retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO state (key, ts, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET ts = excluded.ts, updated_at = CURRENT_TIMESTAMP`,
			key, ts.UTC().UnixNano())
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes key, missing key is not an error
func (s *SQLite) Delete(ctx context.Context, key string) error {
	err := db.Retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
