package rateLimit

import (
	"context"
	"time"

	redisadapter "github.com/sarawakparks/park-reservations/internal/adapters/redis"
)

type RateLimiter struct {
	redis *redisadapter.Cache
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	count, err := rl.redis.CountWithin(ctx, "rl:"+key, period)
	if err != nil {
		return false
	}
	return count <= int64(rate)
}
