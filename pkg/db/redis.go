package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/redis/go-redis/v9"
)

// RedisOptions defines redis connection and retry behavior
type RedisOptions struct {
	Addr           string
	Username       string
	Password       string
	DB             int
	ConnectTimeout time.Duration // total time allowed for connection attempts
	Attempts       int           // ping attempts, bounded by ConnectTimeout as well
	RetryInterval  time.Duration // initial wait between attempts, doubles up to MaxWait
	MaxWait        time.Duration
	PingTimeout    time.Duration
}

// ConnectRedis makes a redis client and pings it with backoff until it answers,
// Attempts run out or ConnectTimeout passes
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 10
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 5 * time.Second
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	lgr.Printf("[DEBUG] connecting to redis %s", opts.Addr)
	attempt := 0
	var pingErr error
	retrier := repeater.NewBackoff(opts.Attempts, opts.RetryInterval, repeater.WithMaxDelay(opts.MaxWait))
	err := retrier.Do(ctx, func() error {
		attempt++
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		defer pingCancel()
		if pingErr = client.Ping(pingCtx).Err(); pingErr != nil {
			lgr.Printf("[WARN] redis %s connection failed, attempt %d: %v", opts.Addr, attempt, pingErr)
			return pingErr
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		if pingErr == nil {
			pingErr = err
		}
		return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, pingErr)
	}
	if attempt > 1 {
		lgr.Printf("[INFO] connected to redis %s after %d attempts", opts.Addr, attempt)
	}
	return client, nil
}
