package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the tracer and meter providers of the process
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler
}

// Option configures New
type Option func(*options)

type options struct {
	config   *Config
	provider []ProviderOption
}

// WithTelemetryConfig sets the telemetry section. Nil disables telemetry.
func WithTelemetryConfig(cfg *Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithProviderOptions passes extra options to both providers
func WithProviderOptions(opts ...ProviderOption) Option {
	return func(o *options) { o.provider = append(o.provider, opts...) }
}

// shutdowner is implemented by the SDK providers and not by the no-op ones
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// New builds the providers described by the configuration. Disabled sections
// get no-op providers, so callers never need nil checks. Shutdown flushes
// whatever was started.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.config
	if cfg == nil || !cfg.Enabled {
		cfg = nil
		slog.Debug("Telemetry disabled")
	} else if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	providerOpts := append([]ProviderOption{FromConfig(cfg)}, o.provider...)

	t := &Telemetry{}
	if cfg.metricsSection().prometheus() {
		reg := prometheus.NewRegistry()
		providerOpts = append(providerOpts, WithPrometheusRegisterer(reg))
		t.metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	var err error
	if t.tracerProvider, err = NewTracerProvider(ctx, providerOpts...); err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}
	if t.meterProvider, err = NewMeterProvider(ctx, providerOpts...); err != nil {
		_ = t.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}

	if cfg != nil {
		slog.Info("Telemetry initialized",
			"service_name", cfg.GetServiceName(),
			"service_version", cfg.GetServiceVersion())
	}
	return t, nil
}

func (c *Config) metricsSection() *MetricsConfig {
	if c == nil {
		return nil
	}
	return c.Metrics
}

// TracerProvider returns the tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler is the scrape handler for /metrics. It is nil unless the
// prometheus exporter is configured.
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

// Tracer returns a named tracer
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a named meter
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return t.meterProvider.Meter(name, opts...)
}

// Shutdown flushes and stops the SDK providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if s, ok := t.tracerProvider.(shutdowner); ok {
		if err := s.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	if s, ok := t.meterProvider.(shutdowner); ok {
		if err := s.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
