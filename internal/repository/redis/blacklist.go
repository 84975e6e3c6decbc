// Package redis implements the ephemeral stores on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
)

const (
	blacklistPrefix = "blacklist:"
	blacklistValue  = "revoked"
)

// Blacklist implements repository.Blacklist using Redis keys that expire
// with the revoked token.
type Blacklist struct {
	client redis.UniversalClient
	tracer *database.QueryTracer
}

// NewBlacklist creates a Redis-backed token blacklist.
func NewBlacklist(client redis.UniversalClient, tracer *database.QueryTracer) *Blacklist {
	return &Blacklist{client: client, tracer: tracer}
}

// Add revokes jti for ttl. Tokens that are already expired are skipped.
func (b *Blacklist) Add(ctx context.Context, jti string, ttl time.Duration) (err error) {
	if jti == "" || ttl <= 0 {
		return nil
	}
	ctx, end := b.tracer.Trace(ctx, "BlacklistAdd", "SET blacklist")
	defer func() { end(err) }()

	if err = b.client.Set(ctx, blacklistPrefix+jti, blacklistValue, ttl).Err(); err != nil {
		return fmt.Errorf("redis set blacklist: %w", err)
	}
	return nil
}

// Contains reports whether jti is revoked.
func (b *Blacklist) Contains(ctx context.Context, jti string) (_ bool, err error) {
	if jti == "" {
		return false, nil
	}
	ctx, end := b.tracer.Trace(ctx, "BlacklistContains", "GET blacklist")
	defer func() { end(err) }()

	_, err = b.client.Get(ctx, blacklistPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		err = nil
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get blacklist: %w", err)
	}
	return true, nil
}
