package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const seenEventKeyPrefix = "events:seen:"

// DefaultTTL bounds how long a processed event id is remembered. Upstream
// redeliveries land well inside this window.
const DefaultTTL = 8640 * time.Second

// RedisDedup is the shared deduplicator for multi-instance deployments.
// SET NX is a single atomic check-and-set, so concurrent deliveries of the
// same event id race safely: exactly one wins.
type RedisDedup struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDedup(client *redis.Client, ttl time.Duration) *RedisDedup {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisDedup{client: client, ttl: ttl}
}

func (d *RedisDedup) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	set, err := d.client.SetNX(ctx, seenEventKeyPrefix+eventID, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check-and-mark: %w", err)
	}
	// set=false means the key already existed: a previous delivery won.
	return !set, nil
}
