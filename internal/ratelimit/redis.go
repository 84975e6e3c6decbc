package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments a window counter and sets its expiry on the first
// hit only, so later hits in the same window do not extend it.
var incrScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return c
`)

// RedisStore keeps window counters in Redis so limits hold across replicas.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Increment implements Store.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Result, error) {
	idx, resetAt := bucket(s.now(), window)
	n, err := incrScript.Run(ctx, s.client, []string{bucketKey(key, idx)}, window.Milliseconds()).Int64()
	if err != nil {
		return Result{}, fmt.Errorf("increment rate limit counter: %w", err)
	}
	return Result{Count: n, ResetAt: resetAt}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string, window time.Duration) (Result, error) {
	idx, resetAt := bucket(s.now(), window)
	n, err := s.client.Get(ctx, bucketKey(key, idx)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Result{}, fmt.Errorf("get rate limit counter: %w", err)
	}
	return Result{Count: n, ResetAt: resetAt}, nil
}

// Reset implements Store.
func (s *RedisStore) Reset(ctx context.Context, key string, window time.Duration) error {
	idx, _ := bucket(s.now(), window)
	if err := s.client.Del(ctx, bucketKey(key, idx)).Err(); err != nil {
		return fmt.Errorf("reset rate limit counter: %w", err)
	}
	return nil
}
