// Package locker provides lease based named locks, used to keep a single run active
// across processes and hosts.
package locker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/db"
)

var (
	// ErrNotAcquired is returned by WithLock when the lock is held by another owner
	ErrNotAcquired = errors.New("lock not acquired")
	// ErrNotOwner is returned by Release when the lock is held by another owner
	ErrNotOwner = errors.New("lock held by another owner")
)

// Locker grants named locks for a lease time. An expired lock may be taken by anyone,
// the current owner may re-acquire to extend the lease.
type Locker interface {
	Acquire(ctx context.Context, name, owner string, lease time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

// Closer is a Locker holding resources to release
type Closer interface {
	Locker
	io.Closer
}

// Options control a scoped acquisition
type Options struct {
	Name     string
	Owner    string
	Lease    time.Duration
	Attempts int           // acquisition attempts, 1 if not set
	Wait     time.Duration // delay between attempts
}

// WithLock acquires the lock, runs fn and releases the lock, also if fn panics.
// Returns ErrNotAcquired without calling fn if the lock can't be taken in opts.Attempts tries.
func WithLock(ctx context.Context, l Locker, opts Options, fn func(ctx context.Context) error) (err error) {
	attempts := max(opts.Attempts, 1)

	acquired := false
	if attempts == 1 || opts.Wait <= 0 {
		if acquired, err = l.Acquire(ctx, opts.Name, opts.Owner, opts.Lease); err != nil {
			return fmt.Errorf("acquire lock %s: %w", opts.Name, err)
		}
	} else {
		var acqErr error
		rerr := repeater.NewFixed(attempts, opts.Wait).Do(ctx, func() error {
			ok, e := l.Acquire(ctx, opts.Name, opts.Owner, opts.Lease)
			if e != nil {
				acqErr = e
				return nil
			}
			if !ok {
				lgr.Printf("[DEBUG] lock %s busy, waiting %v", opts.Name, opts.Wait)
				return ErrNotAcquired
			}
			acquired = true
			return nil
		})
		if acqErr != nil {
			return fmt.Errorf("acquire lock %s: %w", opts.Name, acqErr)
		}
		if rerr != nil && !errors.Is(rerr, ErrNotAcquired) {
			return fmt.Errorf("acquire lock %s: %w", opts.Name, rerr)
		}
	}
	if !acquired {
		return ErrNotAcquired
	}

	defer func() {
		// release with a fresh context, the run context may be canceled by now
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if relErr := l.Release(relCtx, opts.Name, opts.Owner); relErr != nil {
			lgr.Printf("[WARN] failed to release lock %s: %v", opts.Name, relErr)
			if err == nil {
				err = fmt.Errorf("release lock %s: %w", opts.Name, relErr)
			}
		}
	}()

	return fn(ctx)
}

// New makes a locker backend selected by cfg.Type
func New(ctx context.Context, cfg config.LockingConfig) (Closer, error) {
	switch cfg.Type {
	case "", "file":
		return NewFile(cfg.File.Path)
	case "sqlite":
		conn, err := db.OpenSQLite(ctx, cfg.SQLite.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite locker: %w", err)
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
			return nil, fmt.Errorf("connect redis locker: %w", err)
		}
		return NewRedis(client, cfg.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown locking type %q", cfg.Type)
	}
}
