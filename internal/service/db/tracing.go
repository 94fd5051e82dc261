package database

import (
	"context"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/plugin-index/internal/otel"
)

// ServiceTracerName is the name used for the database service tracer
const ServiceTracerName = "github.com/stacklok/plugin-index/service/db"

// startSpan starts a span carrying the db.system attribute.
// A nil tracer yields the span already in the context.
func (s *dbService) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{trace.WithAttributes(semconv.DBSystemPostgreSQL)}, opts...)
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}
