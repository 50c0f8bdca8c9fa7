package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// RedisLocker is an alternative lock backend on Redis. SET NX gives it
// the atomic test-and-set the object store lacks, and the key TTL makes
// Redis expire abandoned locks on its own.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker constructs a Redis-based lock backend.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire sets the key to a fresh token with ttl as the expiry.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", &StoreUnavailableError{Err: err}
	}
	if !ok {
		return "", ErrContended
	}
	return token, nil
}

// Release deletes the key only while it still holds the token. The
// compare and delete run in one script so a concurrent override cannot
// lose its lock to a stale releaser.
func (l *RedisLocker) Release(ctx context.Context, key string, token string) error {
	deleted, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int64()
	if err != nil {
		return &StoreUnavailableError{Err: err}
	}
	if deleted == 1 {
		return nil
	}

	// Nothing was deleted: either the key expired (a no-op release) or
	// another token owns it now.
	exists, err := l.client.Exists(ctx, key).Result()
	if err != nil {
		return &StoreUnavailableError{Err: err}
	}
	if exists > 0 {
		return ErrStaleRelease
	}
	return nil
}
