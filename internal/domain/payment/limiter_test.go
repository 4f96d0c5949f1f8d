package payment

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	rl := NewRateLimiter(client, 1, time.Minute)
	id := uuid.New()
	for i := 0; i < 3; i++ {
		if !rl.Allow(context.Background(), id) {
			t.Fatalf("attempt %d: expected allow when redis is unreachable", i+1)
		}
	}
}

func TestRateLimiterWithRedis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skipf("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse TEST_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	id := uuid.New()
	defer client.Del(ctx, "ratelimit:initiate:"+id.String())

	rl := NewRateLimiter(client, 2, time.Minute)
	if !rl.Allow(ctx, id) || !rl.Allow(ctx, id) {
		t.Fatalf("first two attempts should pass")
	}
	if rl.Allow(ctx, id) {
		t.Fatalf("third attempt should be limited")
	}
	if !rl.Allow(ctx, uuid.New()) {
		t.Fatalf("limit must be per account")
	}

	ttl, err := client.TTL(ctx, "ratelimit:initiate:"+id.String()).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected a ttl on the counter, got %v (%v)", ttl, err)
	}
}

// counterHook answers incr/expire/del in memory so no server is needed.
type counterHook struct {
	mu        sync.Mutex
	counts    map[string]int64
	expireErr error
	dels      int
}

func (h *counterHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *counterHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *counterHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()

		args := cmd.Args()
		key := ""
		if len(args) > 1 {
			key, _ = args[1].(string)
		}
		switch cmd.Name() {
		case "incr":
			h.counts[key]++
			cmd.(*redis.IntCmd).SetVal(h.counts[key])
		case "expire":
			if h.expireErr != nil {
				cmd.SetErr(h.expireErr)
				return h.expireErr
			}
			cmd.(*redis.BoolCmd).SetVal(true)
		case "del":
			h.dels++
			delete(h.counts, key)
			cmd.(*redis.IntCmd).SetVal(1)
		default:
			return next(ctx, cmd)
		}
		return nil
	}
}

func TestRateLimiterResetsCounterWhenExpireFails(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	hook := &counterHook{counts: map[string]int64{}, expireErr: errors.New("READONLY replica")}
	client.AddHook(hook)

	rl := NewRateLimiter(client, 1, time.Minute)
	id := uuid.New()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if !rl.Allow(ctx, id) {
			t.Fatalf("attempt %d: counter without ttl must not lock the account", i+1)
		}
	}
	if hook.dels != 3 {
		t.Fatalf("expected the counter to be dropped after each failed expire, got %d deletes", hook.dels)
	}
}

func TestRateLimiterLimitsWithTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	hook := &counterHook{counts: map[string]int64{}}
	client.AddHook(hook)

	rl := NewRateLimiter(client, 1, time.Minute)
	id := uuid.New()
	ctx := context.Background()
	if !rl.Allow(ctx, id) {
		t.Fatalf("first attempt should pass")
	}
	if rl.Allow(ctx, id) {
		t.Fatalf("second attempt should be limited")
	}
	if hook.dels != 0 {
		t.Fatalf("counter must be kept when expire succeeds, got %d deletes", hook.dels)
	}
}
