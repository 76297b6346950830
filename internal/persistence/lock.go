package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned when releasing a lock owned by someone else.
var ErrLockNotHeld = errors.New("lock not held")

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock is a single-key mutual exclusion lock with a TTL.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock builds a lock stored under key.
func NewRedisLock(r *Redis, key string, ttl time.Duration) *RedisLock {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// Acquire claims the lock. It returns a release token, or "" when another holder owns it.
func (l *RedisLock) Acquire(ctx context.Context) (string, error) {
	if l.client == nil {
		return "", ErrRedisNotConfigured
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release frees the lock if token still owns it.
func (l *RedisLock) Release(ctx context.Context, token string) error {
	if l.client == nil {
		return ErrRedisNotConfigured
	}
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}
