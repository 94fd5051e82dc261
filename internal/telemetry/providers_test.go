package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNewProviderOptions(t *testing.T) {
	t.Parallel()

	o := newProviderOptions(nil)
	assert.Equal(t, DefaultServiceName, o.serviceName)
	assert.Equal(t, DefaultEndpoint, o.endpoint)
	assert.Equal(t, DefaultExportInterval, o.exportInterval)
	assert.False(t, o.insecure)

	reg := prometheus.NewRegistry()
	tracing := &TracingConfig{Enabled: true}
	o = newProviderOptions([]ProviderOption{
		FromConfig(&Config{ServiceName: "from-config", Endpoint: "a:1", Insecure: true, Tracing: tracing}),
		WithServiceName("override"),
		WithEndpoint("b:2"),
		WithPrometheusRegisterer(reg),
		WithExportInterval(5 * time.Second),
		WithExportInterval(0),
	})
	assert.Equal(t, "override", o.serviceName)
	assert.Equal(t, "b:2", o.endpoint)
	assert.True(t, o.insecure)
	assert.Same(t, tracing, o.tracing)
	assert.Nil(t, o.metrics)
	assert.Same(t, reg, o.registerer)
	assert.Equal(t, 5*time.Second, o.exportInterval)
}

func TestFromConfigNil(t *testing.T) {
	t.Parallel()

	o := newProviderOptions([]ProviderOption{WithInsecure(true), FromConfig(nil)})
	assert.Equal(t, DefaultServiceName, o.serviceName)
	assert.True(t, o.insecure, "nil config keeps earlier settings")
	assert.Nil(t, o.tracing)
}

func TestNewTracerProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		tracing *TracingConfig
		wantSDK bool
	}{
		{name: "no config", tracing: nil},
		{name: "disabled", tracing: &TracingConfig{Sampling: 1}},
		{name: "enabled", tracing: &TracingConfig{Enabled: true, Sampling: 1}, wantSDK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tp, err := NewTracerProvider(ctx, WithTracingConfig(tt.tracing), WithInsecure(true))
			require.NoError(t, err)
			if !tt.wantSDK {
				assert.IsType(t, tracenoop.TracerProvider{}, tp)
				return
			}
			sdk, ok := tp.(*sdktrace.TracerProvider)
			require.True(t, ok)
			t.Cleanup(func() { _ = sdk.Shutdown(ctx) })
		})
	}
}

func TestNewMeterProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mp, err := NewMeterProvider(ctx)
	require.NoError(t, err)
	assert.IsType(t, metricnoop.MeterProvider{}, mp)

	mp, err = NewMeterProvider(ctx,
		WithMetricsConfig(&MetricsConfig{Enabled: true}),
		WithInsecure(true),
		WithExportInterval(time.Hour),
	)
	require.NoError(t, err)
	otlp, ok := mp.(*sdkmetric.MeterProvider)
	require.True(t, ok)
	t.Cleanup(func() { _ = otlp.Shutdown(ctx) })
}

func TestNewMeterProviderPrometheus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	mp, err := NewMeterProvider(ctx,
		WithMetricsConfig(&MetricsConfig{Enabled: true, Exporter: MetricsExporterPrometheus}),
		WithPrometheusRegisterer(reg),
	)
	require.NoError(t, err)
	sdk, ok := mp.(*sdkmetric.MeterProvider)
	require.True(t, ok)
	t.Cleanup(func() { _ = sdk.Shutdown(ctx) })

	counter, err := mp.Meter("test").Int64Counter("plugin_index_test_total")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "plugin_index_test_total")
}
