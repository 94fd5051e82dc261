package sync

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/stacklok/plugin-index/internal/httpclient"
	"github.com/stacklok/plugin-index/internal/otel"
	"github.com/stacklok/plugin-index/internal/sources"
	"github.com/stacklok/plugin-index/internal/sync/state"
	"github.com/stacklok/plugin-index/internal/sync/writer"
)

const defaultConcurrency = 10

// TracerName names the tracer of ingest runs
const TracerName = "github.com/stacklok/plugin-index/ingest"

// Metrics receives run and item level measurements
type Metrics interface {
	RecordOutcome(ctx context.Context, registry sources.Registry, item sources.ItemKind, kind OutcomeKind)
	RecordRun(ctx context.Context, action state.Action, registry sources.Registry, item sources.ItemKind,
		duration time.Duration, stats Stats, success bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordOutcome(context.Context, sources.Registry, sources.ItemKind, OutcomeKind) {}
func (nopMetrics) RecordRun(context.Context, state.Action, sources.Registry, sources.ItemKind,
	time.Duration, Stats, bool) {
}

// Runner executes populate and update runs
type Runner struct {
	writer      writer.Writer
	log         state.Service
	concurrency int
	metrics     Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithConcurrency bounds the number of items converted and stored at once
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTracer traces every run; nil disables tracing
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = t
	}
}

// WithClock overrides the clock used for ingest log timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a Runner that stores records with w and appends to log.
func NewRunner(w writer.Writer, log state.Service, opts ...Option) *Runner {
	r := &Runner{
		writer:      w,
		log:         log,
		concurrency: defaultConcurrency,
		metrics:     nopMetrics{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Populate crawls the adapter's whole listing.
func (r *Runner) Populate(ctx context.Context, adapter sources.Adapter) (Stats, error) {
	return r.run(ctx, state.ActionPopulate, adapter, adapter.Populate, nil)
}

// Update crawls the adapter's listing newest first and stops at the first item
// that is not newer than watermark.
func (r *Runner) Update(ctx context.Context, adapter sources.Adapter, watermark int64) (Stats, error) {
	return r.run(ctx, state.ActionUpdate, adapter, adapter.Update, updateStopPredicate(watermark))
}

// updateStopPredicate assumes the update listing is ordered by watermark,
// newest first, so the first stale item marks the end of new data.
func updateStopPredicate(watermark int64) func(sources.Item) bool {
	return func(item sources.Item) bool {
		return item.Watermark() <= watermark
	}
}

func (r *Runner) run(
	ctx context.Context,
	action state.Action,
	adapter sources.Adapter,
	pages func(context.Context) iter.Seq2[[]sources.Item, error],
	stop func(sources.Item) bool,
) (Stats, error) {
	ctx, span := otel.StartSpan(ctx, r.tracer, "ingest."+string(action), trace.WithAttributes(
		otel.AttrAction.String(string(action)),
		otel.AttrRegistry.String(string(adapter.Registry())),
		otel.AttrItemKind.String(string(adapter.Item())),
	))
	stats, err := r.execute(ctx, action, adapter, pages, stop)
	span.SetAttributes(
		otel.AttrPages.Int(stats.Pages),
		otel.AttrSeen.Int(stats.Seen),
		otel.AttrProcessed.Int(stats.Processed),
	)
	otel.End(span, err)
	return stats, err
}

func (r *Runner) execute(
	ctx context.Context,
	action state.Action,
	adapter sources.Adapter,
	pages func(context.Context) iter.Seq2[[]sources.Item, error],
	stop func(sources.Item) bool,
) (Stats, error) {
	registry, item := adapter.Registry(), adapter.Item()
	logger := slog.With(
		"run_id", uuid.NewString(),
		"action", action,
		"registry", registry,
		"item", item,
	)
	started := r.now()
	logger.InfoContext(ctx, "Starting ingest run", "concurrency", r.concurrency)

	var (
		stats   Stats
		mu      gosync.Mutex
		wg      gosync.WaitGroup
		fatal   error
		stopped bool
	)
	record := func(o Outcome) {
		mu.Lock()
		stats.add(o)
		mu.Unlock()
		r.metrics.RecordOutcome(ctx, registry, item, o.Kind)
		if o.Err != nil {
			logger.WarnContext(ctx, "Skipping item", "key", o.Key, "outcome", o.Kind, "error", o.Err)
		}
	}

	// Paging gets its own context so a fatal paging error stops fetching
	// without cancelling item work that is already running.
	pageCtx, cancelPages := context.WithCancel(ctx)
	defer cancelPages()

	sem := semaphore.NewWeighted(int64(r.concurrency))

crawl:
	for batch, err := range pages(pageCtx) {
		if err != nil {
			fatal = err
			break
		}
		mu.Lock()
		stats.Pages++
		mu.Unlock()

		for _, it := range batch {
			if stop != nil && stop(it) {
				stopped = true
				break crawl
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				fatal = err
				break crawl
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				record(r.process(ctx, adapter, it))
			}()
		}
	}
	cancelPages()
	wg.Wait()

	finished := r.now()
	success := fatal == nil
	r.metrics.RecordRun(ctx, action, registry, item, finished.Sub(started), stats, success)

	// The log is written even when the run context is already cancelled.
	logCtx := context.WithoutCancel(ctx)
	if _, err := r.log.Append(logCtx, state.Entry{
		Action:         action,
		Registry:       registry,
		Item:           item,
		DateStarted:    started,
		DateFinished:   finished,
		ItemsProcessed: stats.Processed,
		Success:        success,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to append ingest log", "error", err)
		if success {
			return stats, fmt.Errorf("failed to record %s run: %w", action, err)
		}
	}

	if !success {
		status := httpclient.StatusCode(fatal)
		logger.ErrorContext(ctx, "Ingest run failed",
			"error", fatal, "status", status, "pages", stats.Pages, "seen", stats.Seen, "processed", stats.Processed)
		return stats, &Error{
			Err:      fatal,
			Action:   string(action),
			Registry: registry,
			Item:     item,
			Status:   status,
			Stats:    stats,
		}
	}

	logger.InfoContext(ctx, "Ingest run finished",
		"pages", stats.Pages,
		"seen", stats.Seen,
		"processed", stats.Processed,
		"failed", stats.FailedTotal(),
		"reached_watermark", stopped,
		"duration", finished.Sub(started))
	return stats, nil
}

// process converts and stores one item. It never fails the run.
func (r *Runner) process(ctx context.Context, adapter sources.Adapter, it sources.Item) Outcome {
	key := it.Key()
	rec, err := adapter.Convert(ctx, it)
	if err != nil {
		return convertOutcome(key, err)
	}
	if err := r.writer.Store(ctx, rec); err != nil {
		if errors.Is(err, writer.ErrMissingReference) {
			err = fmt.Errorf("%w (ingest the referenced records first)", err)
		}
		return Outcome{Key: key, Kind: OutcomePersistFailed, Err: err}
	}
	return Outcome{Key: key, Kind: OutcomeProcessed}
}
