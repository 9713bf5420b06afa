// Package ratelimit implements a fixed-window request limiter on Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "rate_limit"

// Result is the outcome of a single limiter check.
type Result struct {
	Allowed    bool
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// RedisLimiter counts requests per key in windows aligned to the epoch.
// Every window has its own counter key, so counters never need resetting.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewRedisLimiter creates a limiter allowing limit requests per window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, logger zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
		logger: logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow counts a request for key. On Redis failure the request is allowed and
// the error is returned for logging.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	index := now.UnixNano() / int64(l.window)
	windowEnd := time.Unix(0, (index+1)*int64(l.window))
	redisKey := fmt.Sprintf("%s:%s:%d", keyPrefix, key, index)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return &Result{Allowed: true, Remaining: l.limit}, fmt.Errorf("failed to count request: %w", err)
	}

	count := incr.Val()
	result := &Result{
		Allowed:   count <= l.limit,
		Count:     count,
		Remaining: max(l.limit-count, 0),
	}
	if !result.Allowed {
		result.RetryAfter = windowEnd.Sub(now)
	}
	return result, nil
}

// Ping verifies Redis is reachable.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
