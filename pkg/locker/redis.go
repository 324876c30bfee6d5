package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// refresh extends the lease if the lock is held by the caller
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// release deletes the lock if held by the caller, -1 if held by somebody else
var releaseScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return 0
end
if v == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return -1
`)

// Redis keeps locks as keys with a TTL equal to the lease
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis makes redis locker on a connected client
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Acquire takes the lock if it is free or already held by owner. Expired locks are gone from redis.
func (r *Redis) Acquire(ctx context.Context, name, owner string, lease time.Duration) (bool, error) {
	key := r.prefix + name
	ok, err := r.client.SetNX(ctx, key, owner, lease).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if ok {
		return true, nil
	}
	res, err := refreshScript.Run(ctx, r.client, []string{key}, owner, lease.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("refresh lock %s: %w", name, err)
	}
	return res == 1, nil
}

// Release removes the lock held by owner
func (r *Redis) Release(ctx context.Context, name, owner string) error {
	res, err := releaseScript.Run(ctx, r.client, []string{r.prefix + name}, owner).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if res < 0 {
		return ErrNotOwner
	}
	return nil
}

// Close closes the redis client
func (r *Redis) Close() error {
	return r.client.Close()
}
