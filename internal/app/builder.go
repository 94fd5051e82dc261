package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/stacklok/plugin-index/internal/cache"
	"github.com/stacklok/plugin-index/internal/config"
	"github.com/stacklok/plugin-index/internal/db"
	"github.com/stacklok/plugin-index/internal/db/sqlc"
	"github.com/stacklok/plugin-index/internal/httpclient"
	"github.com/stacklok/plugin-index/internal/paginate"
	"github.com/stacklok/plugin-index/internal/resolve"
	dbservice "github.com/stacklok/plugin-index/internal/service/db"
	"github.com/stacklok/plugin-index/internal/sources"
	pkgsync "github.com/stacklok/plugin-index/internal/sync"
	"github.com/stacklok/plugin-index/internal/sync/state"
	"github.com/stacklok/plugin-index/internal/sync/writer"
	"github.com/stacklok/plugin-index/internal/telemetry"
)

// BuildOption configures Build
type BuildOption func(*buildConfig) error

type buildConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	pool       *pgxpool.Pool
	httpClient httpclient.Client
	telemetry  *telemetry.Telemetry
	cache      cache.Cache
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) BuildOption {
	return func(b *buildConfig) error {
		if c == nil {
			return fmt.Errorf("config cannot be nil")
		}
		b.config = c
		return nil
	}
}

// WithConnectionPool reuses an open pool instead of connecting from the
// database section. The caller keeps ownership of the pool.
func WithConnectionPool(pool *pgxpool.Pool) BuildOption {
	return func(b *buildConfig) error {
		if pool == nil {
			return fmt.Errorf("pgx pool cannot be nil")
		}
		b.pool = pool
		return nil
	}
}

// WithHTTPClient replaces the per-registry HTTP clients
func WithHTTPClient(client httpclient.Client) BuildOption {
	return func(b *buildConfig) error {
		b.httpClient = client
		return nil
	}
}

// WithTelemetry reuses already initialized telemetry providers
func WithTelemetry(t *telemetry.Telemetry) BuildOption {
	return func(b *buildConfig) error {
		b.telemetry = t
		return nil
	}
}

// WithCache replaces the configured latest version cache
func WithCache(c cache.Cache) BuildOption {
	return func(b *buildConfig) error {
		b.cache = c
		return nil
	}
}

// Build wires every component from the configuration
func Build(ctx context.Context, opts ...BuildOption) (comps *Components, err error) {
	b := &buildConfig{}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	if b.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	c := &Components{
		Config:   b.config,
		runners:  make(map[sources.Registry]*pkgsync.Runner),
		clients:  make(map[sources.Registry]httpclient.Client),
		limiters: make(map[sources.Registry]*rate.Limiter),
	}
	// Release whatever was built if a later step fails.
	defer func() {
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
		}
	}()

	if b.pool != nil {
		c.DB = &db.Connection{Pool: b.pool, Queries: sqlc.New(b.pool)}
	} else {
		if b.config.Database == nil {
			return nil, fmt.Errorf("database configuration is required")
		}
		c.DB, err = db.NewConnection(ctx, b.config.Database)
		if err != nil {
			return nil, err
		}
		c.ownsDB = true
	}

	c.Telemetry = b.telemetry
	if c.Telemetry == nil {
		c.Telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(b.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	c.Cache = b.cache
	if c.Cache == nil {
		c.Cache, err = cache.New(ctx, b.config.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create version cache: %w", err)
		}
	}

	if err := buildIngestComponents(c, b); err != nil {
		return nil, err
	}

	c.Search, err = dbservice.New(
		dbservice.WithConnectionPool(c.DB.Pool),
		dbservice.WithTracer(c.Telemetry.Tracer(dbservice.ServiceTracerName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	slog.InfoContext(ctx, "Components initialized", "cache", b.config.Cache.GetBackend())
	return c, nil
}

// buildIngestComponents creates the limiters, clients and runners of every
// registry plus the refresh engine
func buildIngestComponents(c *Components, b *buildConfig) error {
	metrics, err := telemetry.NewIngestMetrics(c.Telemetry.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create ingest metrics: %w", err)
	}

	w, err := writer.NewDBWriter(c.DB.Pool)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	c.State = state.NewDBStateService(c.DB.Pool)

	for _, registry := range Registries {
		rc := b.config.Registry(string(registry))
		c.limiters[registry] = paginate.NewLimiter(rc.RequestsPerSecond)
		if b.httpClient != nil {
			c.clients[registry] = b.httpClient
		} else {
			c.clients[registry] = httpclient.NewDefaultClient(rc.GetTimeout())
		}
		c.runners[registry] = pkgsync.NewRunner(w, c.State,
			pkgsync.WithConcurrency(rc.Concurrency),
			pkgsync.WithMetrics(metrics),
			pkgsync.WithTracer(c.Telemetry.Tracer(pkgsync.TracerName)),
		)
		slog.Debug("Registry configured",
			"registry", registry,
			"requests_per_second", rc.RequestsPerSecond,
			"concurrency", rc.Concurrency,
			"read_ahead", rc.ReadAhead)
	}

	c.Refresher = resolve.NewEngine(c.DB.Pool, c.State,
		resolve.WithMetrics(metrics),
		resolve.WithTracer(c.Telemetry.Tracer(resolve.TracerName)),
	)
	return nil
}
