package checkout

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyKeyTTL = 24 * time.Hour

// RedisGate implements IdempotencyGate with SetNX, so the fence holds
// across process restarts and replicas.
type RedisGate struct {
	client *redis.Client
}

func NewRedisGate(client *redis.Client) *RedisGate {
	return &RedisGate{client: client}
}

func (g *RedisGate) Acquire(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
}

func (g *RedisGate) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, key).Err()
}
