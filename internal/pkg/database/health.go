package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const (
	StatusOK       = "ok"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// Health is the dependency report served on /health.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Healthy reports whether the ledger is reachable. Redis is optional and
// never makes the service unhealthy.
func (h Health) Healthy() bool {
	return h.Database == StatusOK
}

// Checker pings the stores the service depends on.
type Checker struct {
	db      *sqlx.DB
	redis   *redis.Client
	timeout time.Duration
}

func NewChecker(db *sqlx.DB, redisClient *redis.Client) *Checker {
	return &Checker{db: db, redis: redisClient, timeout: 2 * time.Second}
}

func (c *Checker) Check(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	h := Health{Status: StatusOK, Database: StatusDisabled, Redis: StatusDisabled}

	if c.db != nil {
		h.Database = StatusOK
		if err := c.db.PingContext(ctx); err != nil {
			h.Database = StatusDown
		}
	}
	if c.redis != nil {
		h.Redis = StatusOK
		if err := c.redis.Ping(ctx).Err(); err != nil {
			h.Redis = StatusDown
		}
	}

	if c.db != nil && !h.Healthy() {
		h.Status = "degraded"
	}
	return h
}
