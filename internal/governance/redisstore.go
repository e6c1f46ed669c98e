package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// admitScript increments the identity's counter and sets the window expiry
// on first touch, atomically. Returns the count and remaining window in
// milliseconds so the cap holds across gateway instances.
var admitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisAdmitter is the shared-state Admitter for multi-instance deployments.
// Each identity maps to one counter keyed under keyPrefix; Redis expiry
// implements the window reset, so there is no sweeper to run.
type RedisAdmitter struct {
	client    redis.UniversalClient
	cfg       WindowConfig
	keyPrefix string
}

// NewRedisAdmitter creates an admitter backed by the given Redis client.
func NewRedisAdmitter(client redis.UniversalClient, cfg WindowConfig) *RedisAdmitter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindowConfig().Window
	}
	if cfg.Cap <= 0 {
		cfg.Cap = DefaultWindowConfig().Cap
	}
	return &RedisAdmitter{client: client, cfg: cfg, keyPrefix: "gateway:ratelimit:"}
}

// Admit runs the atomic increment-and-check. Errors reaching Redis surface
// to the caller; the gateway treats them as downstream failures rather than
// silently admitting or dropping.
func (r *RedisAdmitter) Admit(ctx context.Context, identity string) (Decision, error) {
	if identity == "" {
		identity = "unknown"
	}
	key := r.keyPrefix + identity

	res, err := admitScript.Run(ctx, r.client, []string{key}, r.cfg.Window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit store: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return Decision{}, fmt.Errorf("rate limit store: unexpected reply %v", res)
	}
	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)

	if int(count) > r.cfg.Cap {
		retryAfter := time.Duration(ttlMs) * time.Millisecond
		if retryAfter < 0 {
			retryAfter = r.cfg.Window
		}
		return Decision{Allowed: false, Limit: r.cfg.Cap, RetryAfter: retryAfter}, nil
	}

	remaining := r.cfg.Cap - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: r.cfg.Cap, Remaining: remaining}, nil
}
