package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/plugin-index/internal/db/sqlc"
	"github.com/stacklok/plugin-index/internal/otel"
	"github.com/stacklok/plugin-index/internal/repository"
	"github.com/stacklok/plugin-index/internal/sources"
	"github.com/stacklok/plugin-index/internal/sync/state"
)

// TracerName names the tracer of refresh runs
const TracerName = "github.com/stacklok/plugin-index/refresh"

// Result summarizes one refresh
type Result struct {
	Projects int
	Deleted  int64
	Upserted int64
}

// Metrics receives refresh measurements
type Metrics interface {
	RecordRefresh(ctx context.Context, projects int, duration time.Duration, success bool)
}

// Engine rebuilds the common project table from the per-source tables
type Engine struct {
	pool    *pgxpool.Pool
	log     state.Service
	newID   func() uuid.UUID
	now     func() time.Time
	metrics Metrics
	tracer  trace.Tracer
}

// Option configures an Engine
type Option func(*Engine)

// WithIDGenerator overrides uuid.New for new common projects
func WithIDGenerator(f func() uuid.UUID) Option {
	return func(e *Engine) {
		e.newID = f
	}
}

// WithMetrics sets the metrics sink; nil disables metrics
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer traces every refresh; nil disables tracing
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a refresh engine
func NewEngine(pool *pgxpool.Pool, log state.Service, opts ...Option) *Engine {
	e := &Engine{
		pool:  pool,
		log:   log,
		newID: uuid.New,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refresh recomputes every common project in one transaction and records the
// run in the ingest log, also when it fails.
func (e *Engine) Refresh(ctx context.Context) (*Result, error) {
	started := e.now()
	slog.InfoContext(ctx, "Starting common project refresh")

	ctx, span := otel.StartSpan(ctx, e.tracer, "refresh")
	res, err := e.refresh(ctx)
	if res != nil {
		span.SetAttributes(otel.AttrProjects.Int(res.Projects))
	}
	otel.End(span, err)

	entry := state.Entry{
		Action:       state.ActionRefresh,
		Registry:     sources.Common,
		Item:         sources.KindProject,
		DateStarted:  started,
		DateFinished: e.now(),
		Success:      err == nil,
	}
	if res != nil {
		entry.ItemsProcessed = res.Projects
	}
	if e.metrics != nil {
		e.metrics.RecordRefresh(ctx, entry.ItemsProcessed, entry.DateFinished.Sub(started), err == nil)
	}
	if _, logErr := e.log.Append(context.WithoutCancel(ctx), entry); logErr != nil {
		slog.ErrorContext(ctx, "Failed to append ingest log", "error", logErr)
		if err == nil {
			return res, fmt.Errorf("failed to record refresh run: %w", logErr)
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "Common project refresh failed", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "Common project refresh finished",
		"projects", res.Projects,
		"deleted", res.Deleted,
		"upserted", res.Upserted,
		"duration", entry.DateFinished.Sub(started))
	return res, nil
}

func (e *Engine) refresh(ctx context.Context) (*Result, error) {
	// Repeatable read gives the projections and the old rows one snapshot.
	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("failed to begin refresh transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	q := sqlc.New(tx)
	snap, err := loadSnapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	rows, err := q.ListCommonProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list common projects: %w", err)
	}
	previous := make([]Project, len(rows))
	for i, r := range rows {
		previous[i] = Project{ID: r.ID, SpigotID: r.SpigotID, ModrinthID: r.ModrinthID, HangarSlug: r.HangarSlug}
	}

	next := Resolve(snap, previous, e.newID)

	if err := q.CreateTempCommonProjectTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create staging table: %w", err)
	}
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"temp_common_project"},
		[]string{"id", "spigot_id", "modrinth_id", "hangar_slug"},
		pgx.CopyFromSlice(len(next), func(i int) ([]any, error) {
			p := next[i]
			return []any{p.ID, p.SpigotID, p.ModrinthID, p.HangarSlug}, nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to stage common projects: %w", err)
	}
	if int(copied) != len(next) {
		return nil, fmt.Errorf("staged %d of %d common projects", copied, len(next))
	}

	deleted, err := q.DeleteCommonProjectsNotInTemp(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete stale common projects: %w", err)
	}
	upserted, err := q.UpsertCommonProjectsFromTemp(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert common projects: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit refresh: %w", err)
	}

	return &Result{Projects: len(next), Deleted: deleted, Upserted: upserted}, nil
}

func loadSnapshot(ctx context.Context, q *sqlc.Queries) (Snapshot, error) {
	var snap Snapshot

	spigot, err := q.ListSpigotResourceIdentities(ctx)
	if err != nil {
		return snap, fmt.Errorf("failed to list spigot identities: %w", err)
	}
	for _, r := range spigot {
		snap.Spigot = append(snap.Spigot, SpigotSource{
			ID:       r.ID,
			Identity: identityOf(r.SourceRepositoryHost, r.SourceRepositoryOwner, r.SourceRepositoryName),
		})
	}

	modrinth, err := q.ListModrinthProjectIdentities(ctx)
	if err != nil {
		return snap, fmt.Errorf("failed to list modrinth identities: %w", err)
	}
	for _, r := range modrinth {
		snap.Modrinth = append(snap.Modrinth, ModrinthSource{
			ID:       r.ID,
			Identity: identityOf(r.SourceRepositoryHost, r.SourceRepositoryOwner, r.SourceRepositoryName),
		})
	}

	hangar, err := q.ListHangarProjectIdentities(ctx)
	if err != nil {
		return snap, fmt.Errorf("failed to list hangar identities: %w", err)
	}
	for _, r := range hangar {
		snap.Hangar = append(snap.Hangar, HangarSource{
			Slug:     r.Slug,
			Identity: identityOf(r.SourceRepositoryHost, r.SourceRepositoryOwner, r.SourceRepositoryName),
		})
	}
	return snap, nil
}

// identityOf returns nil unless all three parts are stored
func identityOf(host, owner, name *string) *repository.Identity {
	if host == nil || owner == nil || name == nil {
		return nil
	}
	return &repository.Identity{Host: *host, Owner: *owner, Name: *name}
}
