package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultExportInterval is how often the OTLP metric reader pushes
const DefaultExportInterval = 60 * time.Second

// ProviderOption configures NewTracerProvider and NewMeterProvider
type ProviderOption func(*providerOptions)

type providerOptions struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool
	tracing        *TracingConfig
	metrics        *MetricsConfig
	registerer     prometheus.Registerer
	exportInterval time.Duration
}

func newProviderOptions(opts []ProviderOption) *providerOptions {
	o := &providerOptions{
		serviceName:    DefaultServiceName,
		serviceVersion: (*Config)(nil).GetServiceVersion(),
		endpoint:       DefaultEndpoint,
		exportInterval: DefaultExportInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FromConfig copies the service identity and collector settings of cfg
func FromConfig(cfg *Config) ProviderOption {
	return func(o *providerOptions) {
		o.serviceName = cfg.GetServiceName()
		o.serviceVersion = cfg.GetServiceVersion()
		o.endpoint = cfg.GetEndpoint()
		if cfg != nil {
			o.insecure = cfg.Insecure
			o.tracing = cfg.Tracing
			o.metrics = cfg.Metrics
		}
	}
}

// WithServiceName sets the service.name resource attribute
func WithServiceName(name string) ProviderOption {
	return func(o *providerOptions) { o.serviceName = name }
}

// WithEndpoint sets the OTLP/HTTP collector
func WithEndpoint(endpoint string) ProviderOption {
	return func(o *providerOptions) { o.endpoint = endpoint }
}

// WithInsecure sends OTLP over plain HTTP
func WithInsecure(insecure bool) ProviderOption {
	return func(o *providerOptions) { o.insecure = insecure }
}

// WithTracingConfig enables span export when tc is enabled
func WithTracingConfig(tc *TracingConfig) ProviderOption {
	return func(o *providerOptions) { o.tracing = tc }
}

// WithMetricsConfig enables metric export when mc is enabled
func WithMetricsConfig(mc *MetricsConfig) ProviderOption {
	return func(o *providerOptions) { o.metrics = mc }
}

// WithPrometheusRegisterer is where the prometheus exporter registers.
// Defaults to prometheus.DefaultRegisterer.
func WithPrometheusRegisterer(r prometheus.Registerer) ProviderOption {
	return func(o *providerOptions) { o.registerer = r }
}

// WithExportInterval overrides DefaultExportInterval
func WithExportInterval(d time.Duration) ProviderOption {
	return func(o *providerOptions) {
		if d > 0 {
			o.exportInterval = d
		}
	}
}

func (o *providerOptions) resource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(o.serviceName),
			semconv.ServiceVersion(o.serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// NewTracerProvider returns an SDK provider exporting over OTLP/HTTP, or a
// no-op provider when tracing is off. The SDK provider becomes the global one
// and W3C trace context is installed as the global propagator.
func NewTracerProvider(ctx context.Context, opts ...ProviderOption) (trace.TracerProvider, error) {
	o := newProviderOptions(opts)
	if !o.tracing.enabled() {
		slog.Debug("Tracing disabled")
		return tracenoop.NewTracerProvider(), nil
	}

	res, err := o.resource(ctx)
	if err != nil {
		return nil, err
	}

	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(o.endpoint)}
	if o.insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	sampling := o.tracing.GetSampling()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampling))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if o.insecure {
		slog.Warn("Traces are exported over plain HTTP", "endpoint", o.endpoint)
	}
	slog.Info("Tracing initialized", "endpoint", o.endpoint, "sampling", sampling)
	return tp, nil
}

// NewMeterProvider returns an SDK provider with an OTLP push reader or a
// prometheus pull reader, or a no-op provider when metrics are off. The SDK
// provider becomes the global one.
func NewMeterProvider(ctx context.Context, opts ...ProviderOption) (metric.MeterProvider, error) {
	o := newProviderOptions(opts)
	if !o.metrics.enabled() {
		slog.Debug("Metrics disabled")
		return metricnoop.NewMeterProvider(), nil
	}

	res, err := o.resource(ctx)
	if err != nil {
		return nil, err
	}

	var reader sdkmetric.Reader
	if o.metrics.prometheus() {
		var promOpts []otelprom.Option
		if o.registerer != nil {
			promOpts = append(promOpts, otelprom.WithRegisterer(o.registerer))
		}
		reader, err = otelprom.New(promOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
	} else {
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(o.endpoint)}
		if o.insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(o.exportInterval))
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized", "exporter", o.metrics.GetExporter(), "endpoint", o.endpoint)
	return mp, nil
}
