package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "wlt:idem:"

// IdempotencyCache keeps replayable operation results keyed by
// "<walletID>:<OPERATION>:<clientKey>". Postgres remains the source of truth;
// this is the fast path in front of it.
type IdempotencyCache struct {
	client goredis.UniversalClient
}

func NewIdempotencyCache(client goredis.UniversalClient) *IdempotencyCache {
	return &IdempotencyCache{client: client}
}

// Get returns nil, nil on a miss.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency cache get: %w", err)
	}
	return val, nil
}

// Set stores value only if the key is not already cached, so a racing replay
// cannot overwrite the first committed result.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.SetNX(ctx, idempotencyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency cache set: %w", err)
	}
	return nil
}
