package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/plugin-index/internal/api"
	"github.com/stacklok/plugin-index/internal/sync/coordinator"
	"github.com/stacklok/plugin-index/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// ServerOption configures NewServerApp
type ServerOption func(*serverConfig) error

type serverConfig struct {
	address     string
	middlewares []func(http.Handler) http.Handler
	coordinator coordinator.Coordinator

	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseServerConfig(c *Components, opts ...ServerOption) (*serverConfig, error) {
	cfg := &serverConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}
	if c != nil && c.Config != nil {
		cfg.address = c.Config.Server.GetAddress()
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.address == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	return cfg, nil
}

// WithAddress overrides the configured listen address
func WithAddress(addr string) ServerOption {
	return func(cfg *serverConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, ok := strings.Cut(addr, ":")
		if !ok || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithCoordinator runs the scheduler alongside the server
func WithCoordinator(coord coordinator.Coordinator) ServerOption {
	return func(cfg *serverConfig) error {
		cfg.coordinator = coord
		return nil
	}
}

// NewServerApp creates the HTTP server over built components
func NewServerApp(ctx context.Context, c *Components, opts ...ServerOption) (*ServerApp, error) {
	if c == nil {
		return nil, fmt.Errorf("components cannot be nil")
	}
	cfg, err := baseServerConfig(c, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build server configuration: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, c)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	return &ServerApp{
		components:  c,
		coordinator: cfg.coordinator,
		httpServer:  httpServer,
		ctx:         appCtx,
		cancelFunc:  cancel,
	}, nil
}

// NewCoordinator schedules UpdateAll and Refresh from the schedule section
func (c *Components) NewCoordinator(opts ...coordinator.Option) (coordinator.Coordinator, error) {
	if c.Config.Schedule == nil {
		return nil, fmt.Errorf("schedule configuration is required")
	}
	refresh := func(ctx context.Context) error {
		_, err := c.Refresh(ctx)
		return err
	}
	return coordinator.New(c.UpdateAll, refresh, c.Config.Schedule, opts...)
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *serverConfig, c *Components) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	middlewares := b.middlewares
	if middlewares == nil {
		middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	serverOpts := []api.ServerOption{}
	if c.Telemetry != nil {
		instrument, err := telemetry.HTTPMiddleware(c.Telemetry.TracerProvider(), c.Telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP instrumentation: %w", err)
		}
		// Outermost so that every request, including timeouts, is counted.
		middlewares = append([]func(http.Handler) http.Handler{instrument}, middlewares...)
		if h := c.Telemetry.MetricsHandler(); h != nil {
			serverOpts = append(serverOpts, api.WithMetricsHandler(h))
			slog.Info("Prometheus metrics exposed on /metrics")
		}
	}
	serverOpts = append(serverOpts, api.WithMiddlewares(middlewares...))

	router := api.NewServer(c.Search, c.State, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
