// Package telemetry sets up OpenTelemetry for plugin-index: traces over OTLP,
// metrics over OTLP or a Prometheus scrape endpoint, HTTP instrumentation and
// the ingest metrics.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/stacklok/plugin-index/pkg/versions"
)

// Defaults applied when the telemetry section leaves a field empty
const (
	DefaultServiceName = "plugin-index"
	DefaultEndpoint    = "localhost:4318"
	DefaultSampling    = 0.05
)

// Metrics exporters
const (
	MetricsExporterOTLP       = "otlp"
	MetricsExporterPrometheus = "prometheus"
)

// Config is the telemetry section of the configuration file
type Config struct {
	// Enabled switches every provider on or off
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP/HTTP collector as host:port
	Endpoint string `yaml:"endpoint,omitempty"`
	// Insecure sends OTLP over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig configures span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of root traces kept. Zero means DefaultSampling.
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig configures metric export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is "otlp" (push, the default) or "prometheus" (served on /metrics)
	Exporter string `yaml:"exporter,omitempty"`
}

// GetServiceName defaults to DefaultServiceName
func (c *Config) GetServiceName() string {
	if c == nil || c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion defaults to the build version
func (c *Config) GetServiceVersion() string {
	if c == nil || c.ServiceVersion == "" {
		return versions.Get().Version
	}
	return c.ServiceVersion
}

// GetEndpoint defaults to DefaultEndpoint
func (c *Config) GetEndpoint() string {
	if c == nil || c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetSampling defaults to DefaultSampling. An explicit zero cannot be told
// apart from an unset field, so it also yields the default.
func (c *TracingConfig) GetSampling() float64 {
	if c == nil || c.Sampling == 0 {
		return DefaultSampling
	}
	return c.Sampling
}

// GetExporter defaults to OTLP
func (c *MetricsConfig) GetExporter() string {
	if c == nil || c.Exporter == "" {
		return MetricsExporterOTLP
	}
	return c.Exporter
}

func (c *TracingConfig) enabled() bool { return c != nil && c.Enabled }

func (c *MetricsConfig) enabled() bool { return c != nil && c.Enabled }

// prometheus reports whether metrics are pulled from /metrics
func (c *MetricsConfig) prometheus() bool {
	return c.enabled() && c.GetExporter() == MetricsExporterPrometheus
}

// Validate checks the sections that are switched on. A nil or disabled config
// is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	var errs []error
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	return errors.Join(errs...)
}

// Validate requires a sampling ratio within [0, 1]
func (c *TracingConfig) Validate() error {
	if !c.enabled() {
		return nil
	}
	if c.Sampling < 0 || c.Sampling > 1 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}
	return nil
}

// Validate requires a known exporter
func (c *MetricsConfig) Validate() error {
	if !c.enabled() {
		return nil
	}
	switch c.GetExporter() {
	case MetricsExporterOTLP, MetricsExporterPrometheus:
		return nil
	default:
		return fmt.Errorf("exporter must be %q or %q, got %q", MetricsExporterOTLP, MetricsExporterPrometheus, c.Exporter)
	}
}
