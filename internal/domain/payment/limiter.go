package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/agroci/agroci-api/internal/pkg/logger"
)

// RateLimiter caps checkout attempts per account
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new rate limiter. A nil client disables it.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Allow checks if the account can start another checkout
func (rl *RateLimiter) Allow(ctx context.Context, accountID uuid.UUID) bool {
	if rl == nil || rl.redis == nil {
		return true // No Redis, allow all
	}

	key := fmt.Sprintf("ratelimit:initiate:%s", accountID)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		logger.LogWarn(ctx, "Rate limiter unavailable", "error", err.Error())
		return true // Fail open
	}

	// A counter without a ttl would lock the account out for good.
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			logger.LogWarn(ctx, "Rate limiter expire failed, resetting counter", "error", err.Error())
			rl.redis.Del(ctx, key)
			return true
		}
	}

	return count <= int64(rl.limit)
}
