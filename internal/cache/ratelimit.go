package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter implements sliding window rate limiting on Redis sorted
// sets. One limiter covers one action (login attempts, review
// submissions) with its own limit and window; the caller chooses the
// key, typically a client IP or a user id.
type RateLimiter struct {
	redis  *Redis
	action string
	limit  int
	window time.Duration
}

// RateLimitResult contains the outcome of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	Limit      int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// NewRateLimiter creates a rate limiter for one action
func NewRateLimiter(redis *Redis, action string, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		redis:  redis,
		action: action,
		limit:  limit,
		window: window,
	}
}

// Allow checks whether another request under the key fits the window,
// recording it if so. Redis failures fail open: throttling protects
// capacity, it must never become the outage itself.
func (r *RateLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	now := time.Now()
	windowStart := now.Add(-r.window)

	redisKey := fmt.Sprintf("ratelimit:%s:%s", r.action, key)

	// Score = timestamp, member = unique request id
	pipe := r.redis.Client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, redisKey)

	_, err := pipe.Exec(ctx)
	if err != nil {
		log.Error().Err(err).Str("action", r.action).Msg("Failed to check rate limit")
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(r.limit),
			Limit:     r.limit,
		}, nil
	}

	currentCount := countCmd.Val()

	result := &RateLimitResult{
		Limit:   r.limit,
		ResetAt: now.Add(r.window),
	}

	if currentCount >= int64(r.limit) {
		result.Allowed = false
		result.Remaining = 0

		// Retry once the oldest entry leaves the window
		oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			oldestTime := time.Unix(0, int64(oldest[0].Score))
			result.RetryAfter = oldestTime.Add(r.window).Sub(now)
			if result.RetryAfter < 0 {
				result.RetryAfter = time.Second
			}
		} else {
			result.RetryAfter = r.window
		}

		return result, nil
	}

	member := fmt.Sprintf("%d-%s", now.UnixNano(), key)
	err = r.redis.Client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: member,
	}).Err()
	if err != nil {
		log.Warn().Err(err).Str("action", r.action).Msg("Failed to record rate limit entry")
	}

	r.redis.Client.Expire(ctx, redisKey, r.window*2)

	result.Allowed = true
	result.Remaining = int64(r.limit) - currentCount - 1
	if result.Remaining < 0 {
		result.Remaining = 0
	}

	return result, nil
}

// Reset clears the window for a key
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.redis.Client.Del(ctx, fmt.Sprintf("ratelimit:%s:%s", r.action, key)).Err()
}
