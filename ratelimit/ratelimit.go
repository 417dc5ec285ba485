// Package ratelimit implements a fixed-window limiter backed by Redis,
// keyed by sender identity on the send endpoint.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimited is returned when the caller has exhausted the current window.
var ErrLimited = fmt.Errorf("rate limit exceeded")

// Limiter admits at most Limit requests per key per Window.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("%s:%s", r.prefix, key)
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("rate limiter incr: %w", err)
	}
	if count == 1 {
		r.client.Expire(ctx, redisKey, r.window)
	}
	if count > int64(r.limit) {
		return ErrLimited
	}
	return nil
}
