// Package cache implements the latest version cache used by the registry
// adapters. Keys are registry:versionId and values are the resolved
// Minecraft version.
package cache

import (
	"context"
	"fmt"

	"github.com/stacklok/plugin-index/internal/config"
	"github.com/stacklok/plugin-index/internal/sources"
)

// Cache is a sources.VersionCache that holds resources
type Cache interface {
	sources.VersionCache
	Close() error
}

// New builds the cache selected by cfg. A nil cfg disables caching.
func New(ctx context.Context, cfg *config.CacheConfig) (Cache, error) {
	switch backend := cfg.GetBackend(); backend {
	case config.CacheBackendNone:
		return None{}, nil
	case config.CacheBackendMemory:
		return NewMemory(cfg.GetSize(), cfg.GetTTL()), nil
	case config.CacheBackendRedis:
		return NewRedis(ctx, cfg.Address, cfg.GetTTL())
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}

// None never remembers anything
type None struct{}

var _ Cache = None{}

// Get implements sources.VersionCache
func (None) Get(context.Context, string) (string, bool) { return "", false }

// Set implements sources.VersionCache
func (None) Set(context.Context, string, string) {}

// Close implements Cache
func (None) Close() error { return nil }
