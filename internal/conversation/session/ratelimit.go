package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "ratelimit:"

// RateLimiter throttles inbound messages per phone number over a fixed
// window, counted in Redis so every API instance shares the budget.
type RateLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, maxPerWindow int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: maxPerWindow, window: window}
}

// Allow records one request for the phone number and reports whether it
// stays within the limit. The window starts at the first request.
func (r *RateLimiter) Allow(ctx context.Context, phone string) (bool, error) {
	key := rateKeyPrefix + phone

	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.rdb.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	return count <= int64(r.max), nil
}

// Remaining returns how many requests the phone number has left in the
// current window.
func (r *RateLimiter) Remaining(ctx context.Context, phone string) (int, error) {
	count, err := r.rdb.Get(ctx, rateKeyPrefix+phone).Int()
	if err == redis.Nil {
		return r.max, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rate limit get: %w", err)
	}
	if count >= r.max {
		return 0, nil
	}
	return r.max - count, nil
}

// Reset clears the counter for a phone number.
func (r *RateLimiter) Reset(ctx context.Context, phone string) error {
	return r.rdb.Del(ctx, rateKeyPrefix+phone).Err()
}
