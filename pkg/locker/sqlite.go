package locker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/rssalert/pkg/db"
)

// SQLite keeps locks in the locks table, see db.OpenSQLite
type SQLite struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLite makes sqlite locker on an opened database
func NewSQLite(conn *sqlx.DB) *SQLite {
	return &SQLite{db: conn, now: time.Now}
}

// Acquire takes the lock if it is free, expired or already held by owner.
// A single conditional upsert decides, so concurrent callers can't both win.
func (s *SQLite) Acquire(ctx context.Context, name, owner string, lease time.Duration) (bool, error) {
	now := s.now()
	var affected int64
	err := db.Retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO locks (name, owner, expires, acquired_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(name) DO UPDATE SET owner = excluded.owner, expires = excluded.expires, acquired_at = CURRENT_TIMESTAMP
			WHERE locks.expires < ? OR locks.owner = excluded.owner`,
			name, owner, now.Add(lease).UnixNano(), now.UnixNano())
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return affected > 0, nil
}

// Release removes the lock held by owner
func (s *SQLite) Release(ctx context.Context, name, owner string) error {
	var affected int64
	err := db.Retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM locks WHERE name = ? AND owner = ?`, name, owner)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if affected > 0 {
		return nil
	}

	var holder string
	err = s.db.GetContext(ctx, &holder, `SELECT owner FROM locks WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check lock %s: %w", name, err)
	}
	return ErrNotOwner
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
