package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"

	"github.com/stacklok/plugin-index/internal/sources"
	pkgsync "github.com/stacklok/plugin-index/internal/sync"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		prefixed string
		plain    string
		want     zapcore.Level
	}{
		{name: "unset", want: zapcore.InfoLevel},
		{name: "prefixed debug", prefixed: "debug", want: zapcore.DebugLevel},
		{name: "plain warning", plain: "WARNING", want: zapcore.WarnLevel},
		{name: "prefixed wins", prefixed: "error", plain: "debug", want: zapcore.ErrorLevel},
		{name: "invalid", plain: "loud", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PLUGIN_INDEX_LOG_LEVEL", tt.prefixed)
			t.Setenv("LOG_LEVEL", tt.plain)
			assert.Equal(t, tt.want, getLogLevel())
		})
	}
}

func TestTraceHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(&traceHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	logger.InfoContext(context.Background(), "no span")
	assert.NotContains(t, buf.String(), "trace_id")

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	buf.Reset()
	logger.With("component", "test").InfoContext(ctx, "with span")
	assert.Contains(t, buf.String(), `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, buf.String(), `"span_id":"00f067aa0ba902b7"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestNewZapLogger(t *testing.T) {
	t.Parallel()

	zl, err := newZapLogger(zapcore.WarnLevel)
	require.NoError(t, err)
	assert.False(t, zl.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, zl.Core().Enabled(zapcore.ErrorLevel))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	runErr := &pkgsync.Error{
		Err:      errors.New("HTTP 503"),
		Action:   "update",
		Registry: sources.Hangar,
		Item:     sources.KindProject,
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "plain error", err: errors.New("unknown registry"), want: exitFailed},
		{name: "run failure", err: runErr, want: exitRunFailed},
		{name: "wrapped run failure", err: fmt.Errorf("update: %w", runErr), want: exitRunFailed},
		{name: "joined run failure", err: errors.Join(errors.New("spigot: ok"), runErr), want: exitRunFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
