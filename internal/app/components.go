package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/stacklok/plugin-index/internal/cache"
	"github.com/stacklok/plugin-index/internal/config"
	"github.com/stacklok/plugin-index/internal/db"
	"github.com/stacklok/plugin-index/internal/httpclient"
	"github.com/stacklok/plugin-index/internal/resolve"
	"github.com/stacklok/plugin-index/internal/service"
	"github.com/stacklok/plugin-index/internal/sources"
	pkgsync "github.com/stacklok/plugin-index/internal/sync"
	"github.com/stacklok/plugin-index/internal/sync/state"
	"github.com/stacklok/plugin-index/internal/telemetry"
)

// Registries lists every ingested registry in ingest order
var Registries = []sources.Registry{sources.Spigot, sources.Modrinth, sources.Hangar}

// Components groups everything the CLI verbs and the server share. One
// instance owns one database pool and one rate limiter per registry.
type Components struct {
	Config    *config.Config
	DB        *db.Connection
	Telemetry *telemetry.Telemetry
	Cache     cache.Cache
	State     state.Service
	Refresher *resolve.Engine
	Search    service.SearchService

	runners  map[sources.Registry]*pkgsync.Runner
	clients  map[sources.Registry]httpclient.Client
	limiters map[sources.Registry]*rate.Limiter
	ownsDB   bool
}

// Adapter creates the crawler for a registry listing. Adapters of one
// registry share its limiter.
func (c *Components) Adapter(registry sources.Registry, item sources.ItemKind) (sources.Adapter, error) {
	limiter, ok := c.limiters[registry]
	if !ok {
		return nil, fmt.Errorf("unsupported registry: %s", registry)
	}
	rc := c.Config.Registry(string(registry))
	return sources.NewAdapter(registry, item, c.clients[registry], limiter,
		sources.WithBaseURL(rc.BaseURL),
		sources.WithPageSize(rc.PageSize),
		sources.WithReadAhead(rc.ReadAhead),
		sources.WithVersionCache(c.Cache),
	)
}

// Close releases the cache, flushes telemetry and closes the pool when
// Build opened it.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ownsDB && c.DB != nil {
		c.DB.Close()
	}
	if len(errs) > 0 {
		slog.ErrorContext(ctx, "Failed to release components", "error", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
