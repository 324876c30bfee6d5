package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps state as string values under a key prefix
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis makes redis storage on a connected client
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Read returns the stored time for key or ErrNotFound
func (r *Redis) Read(ctx context.Context, key string) (time.Time, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("read %s: %w", key, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return ts.UTC(), nil
}

// Write stores ts for key, without expiration
func (r *Redis) Write(ctx context.Context, key string, ts time.Time) error {
	if err := r.client.Set(ctx, r.prefix+key, ts.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes key, missing key is not an error
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close closes the redis client
func (r *Redis) Close() error {
	return r.client.Close()
}
