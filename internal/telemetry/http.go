package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// HTTPInstrumentationName names the tracer and meter of the API server
const HTTPInstrumentationName = "github.com/stacklok/plugin-index/http"

const (
	unknownRoute       = "unknown_route"
	maxUserAgentLength = 256
)

// untraced routes are probed constantly and carry no useful span data.
// They are still counted in the request metrics.
var untraced = map[string]bool{
	"/health":    true,
	"/readiness": true,
	"/metrics":   true,
}

type httpInstruments struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	duration   metric.Float64Histogram
	requests   metric.Int64Counter
	inFlight   metric.Int64UpDownCounter
}

// HTTPMiddleware traces and measures every API request. Span names and the
// route attribute use the chi route pattern, so /v1/search?q=x and
// /v1/search?q=y share one series.
func HTTPMiddleware(tp trace.TracerProvider, mp metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	inst, err := newHTTPInstruments(tp, mp)
	if err != nil {
		return nil, err
	}
	return inst.wrap, nil
}

func newHTTPInstruments(tp trace.TracerProvider, mp metric.MeterProvider) (*httpInstruments, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(HTTPInstrumentationName)

	duration, err := meter.Float64Histogram("plugin_index_http_request_duration_seconds",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}
	requests, err := meter.Int64Counter("plugin_index_http_requests_total",
		metric.WithDescription("API requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}
	inFlight, err := meter.Int64UpDownCounter("plugin_index_http_active_requests",
		metric.WithDescription("API requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-flight counter: %w", err)
	}

	return &httpInstruments{
		tracer:     tp.Tracer(HTTPInstrumentationName),
		propagator: otel.GetTextMapPropagator(),
		duration:   duration,
		requests:   requests,
		inFlight:   inFlight,
	}, nil
}

func (h *httpInstruments) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// r.Context() may be cancelled once ServeHTTP returns
		ctx := r.Context()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		var span trace.Span
		if !untraced[r.URL.Path] {
			ctx = h.propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
			ctx, span = h.tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(truncateUserAgent(r.UserAgent())),
				),
			)
			defer span.End()
			r = r.WithContext(ctx)
		}

		h.inFlight.Add(ctx, 1)
		next.ServeHTTP(ww, r)
		h.inFlight.Add(ctx, -1)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		if span != nil {
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRoute(route),
				semconv.HTTPResponseStatusCode(status),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		}

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.String("status_code", strconv.Itoa(status)),
		)
		h.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		h.requests.Add(ctx, 1, attrs)
	})
}

// routePattern is the matched chi pattern, or unknownRoute for unmatched
// paths so that scanners cannot create new series
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unknownRoute
}

func truncateUserAgent(ua string) string {
	if len(ua) > maxUserAgentLength {
		return ua[:maxUserAgentLength]
	}
	return ua
}
