package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// HealthCheck reports on the Redis instance behind the idempotency cache and
// the rate limiter. Both fall back when Redis is down, so /health marks the
// service degraded rather than failing requests.
type HealthCheck struct {
	client goredis.UniversalClient
}

func NewHealthCheck(client goredis.UniversalClient) *HealthCheck {
	return &HealthCheck{client: client}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping %s: %w", h.Name(), err)
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "redis"
}
