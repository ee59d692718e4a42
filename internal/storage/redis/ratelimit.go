package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/pizzeria/pkg/httpmiddleware"
)

const rateLimitPrefix = "pizzeria:ratelimit:"

type counterCmdable interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

var _ httpmiddleware.Counter = (*RateCounter)(nil)

// RateCounter keeps rate limit windows in Redis so every replica sees the
// same counts.
type RateCounter struct {
	client counterCmdable
}

// NewRateCounter wraps a go-redis client.
func NewRateCounter(client *redis.Client) *RateCounter {
	return &RateCounter{client: client}
}

// IncrWithTTL increments key and sets its expiry on the first increment.
func (c *RateCounter) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	key = rateLimitPrefix + key
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "incr %q", key)
	}
	if ttl > 0 && count == 1 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, errors.Wrapf(err, "expire %q", key)
		}
	}
	return count, nil
}
