package distlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the stored token matches
// the caller's, so a writer whose lease expired cannot delete a key that
// another instance has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock elects a single holder via SET NX with a TTL lease. Each
// instance tags the key with its own token, and release is scripted so
// only the current holder can clear it.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLock creates a Redis-backed lock for the given key. The TTL
// bounds how long a crashed holder can block the other instances.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    "pulse:lock:" + key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lease. A false return without error means
// another instance currently holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Release drops the lease if this instance still holds it. Releasing a
// lease that already expired is not an error.
func (l *RedisLock) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
