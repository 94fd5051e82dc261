// Package otel holds the span helpers and attribute keys shared by the
// ingest runner, the refresh engine and the search service.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys
const (
	AttrRegistry  = attribute.Key("plugin.registry")
	AttrItemKind  = attribute.Key("plugin.item")
	AttrAction    = attribute.Key("ingest.action")
	AttrPages     = attribute.Key("ingest.pages")
	AttrSeen      = attribute.Key("ingest.seen")
	AttrProcessed = attribute.Key("ingest.processed")
	AttrProjects  = attribute.Key("refresh.projects")

	AttrPageSize    = attribute.Key("pagination.limit")
	AttrPageOffset  = attribute.Key("pagination.offset")
	AttrSort        = attribute.Key("search.sort")
	AttrHasQuery    = attribute.Key("search.has_query")
	AttrResultCount = attribute.Key("result.count")
)

// StartSpan starts a child span with tracer. With a nil tracer it returns ctx
// unchanged together with the span ctx already carries, which is a no-op span
// when there is none.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. The status text stays generic because
// errors may carry SQL or upstream URLs; the error itself is kept as an event.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "operation failed")
}

// End records err, if any, and ends span
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	RecordError(span, err)
	span.End()
}
