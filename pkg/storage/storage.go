// Package storage keeps feed cursors and event records, a durable key to timestamp mapping.
// All backends are safe for concurrent use.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/db"
)

// ErrNotFound is returned by Read when the key has no value
var ErrNotFound = errors.New("not found")

// Storage is a durable key to timestamp mapping
type Storage interface {
	Read(ctx context.Context, key string) (time.Time, error)
	Write(ctx context.Context, key string, ts time.Time) error
	Delete(ctx context.Context, key string) error
}

// Closer is a Storage holding resources to release
type Closer interface {
	Storage
	io.Closer
}

// New makes a storage backend selected by cfg.Type
func New(ctx context.Context, cfg config.StorageConfig) (Closer, error) {
	switch cfg.Type {
	case "", "file":
		return NewFile(cfg.File.Path)
	case "sqlite":
		conn, err := db.OpenSQLite(ctx, cfg.SQLite.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return NewSQLite(conn), nil
	case "redis":
		client, err := db.ConnectRedis(ctx, db.RedisOptions{
			Addr:           cfg.Redis.Addr,
			Username:       cfg.Redis.Username,
			Password:       cfg.Redis.Password,
			DB:             cfg.Redis.DB,
			ConnectTimeout: cfg.Redis.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis storage: %w", err)
		}
		return NewRedis(client, cfg.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
