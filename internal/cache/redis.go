package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "plugin-index:version:"

// Redis shares cached versions between processes. Redis errors are logged
// and treated as misses so a cache outage only costs extra lookups.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*Redis)(nil)

// NewRedis connects to addr and verifies the connection
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// Get implements sources.VersionCache
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	v, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.DebugContext(ctx, "Version cache read failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

// Set implements sources.VersionCache
func (r *Redis) Set(ctx context.Context, key, value string) {
	if err := r.client.Set(ctx, keyPrefix+key, value, r.ttl).Err(); err != nil {
		slog.DebugContext(ctx, "Version cache write failed", "key", key, "error", err)
	}
}

// Close implements Cache
func (r *Redis) Close() error {
	return r.client.Close()
}
