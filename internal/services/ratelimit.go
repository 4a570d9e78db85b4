package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Quotas applied across the API. Keys are scope-prefixed under "rl:".
const (
	GlobalClaimLimit   = 50 // platform-wide registrations per hour
	PerIPClaimLimit    = 5
	PerEmailClaimLimit = 3
	PerIPVerifyLimit   = 10
	PerFeedDeleteLimit = 10
	PerFeedPostLimit   = 30

	HourWindow = time.Hour

	rateLimitKeyPrefix = "rl:"
)

// RateLimiter counts requests per key in a fixed window backed by Redis.
// Counters expire with the window; no cleanup pass is needed.
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// Allow atomically consumes one unit of the quota for key. The INCR is the
// atomic increment-and-compare; a read-then-write would let concurrent
// requests both slip past the ceiling. A Redis error is returned to the
// caller (fail closed) rather than admitting unlimited traffic.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	fullKey := rateLimitKeyPrefix + key

	count, err := l.rdb.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, 0, err
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, fullKey, window).Err(); err != nil {
			return false, 0, err
		}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return count <= int64(limit), remaining, nil
}
