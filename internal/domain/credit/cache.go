package credit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	processedKeyPrefix = "paystack:processed:"
	processedTTL       = 24 * time.Hour
)

// ProcessedCache remembers references that were already credited so
// redeliveries skip the gateway call. The ledger stays authoritative.
type ProcessedCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewProcessedCache returns a cache; a nil client disables it.
func NewProcessedCache(client *redis.Client) *ProcessedCache {
	return &ProcessedCache{redis: client, ttl: processedTTL}
}

// Seen reports whether reference was marked processed.
func (c *ProcessedCache) Seen(ctx context.Context, reference string) (bool, error) {
	if c == nil || c.redis == nil {
		return false, nil
	}
	n, err := c.redis.Exists(ctx, processedKeyPrefix+reference).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records reference as processed.
func (c *ProcessedCache) Mark(ctx context.Context, reference string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Set(ctx, processedKeyPrefix+reference, time.Now().UTC().Format(time.RFC3339), c.ttl).Err()
}
