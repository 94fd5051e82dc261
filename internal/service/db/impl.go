// Package database provides a database-backed implementation of the SearchService interface
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/plugin-index/internal/db/sqlc"
	"github.com/stacklok/plugin-index/internal/otel"
	"github.com/stacklok/plugin-index/internal/repository"
	"github.com/stacklok/plugin-index/internal/service"
)

// options holds configuration options for the database service
type options struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// Option is a functional option for configuring the database service
type Option func(*options) error

// WithConnectionPool sets the pgx pool. The caller closes it.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the database service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// dbService implements the SearchService interface using a database backend
type dbService struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

var _ service.SearchService = (*dbService)(nil)

// New creates a new database-backed search service with the given options
func New(opts ...Option) (service.SearchService, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbService{pool: o.pool, tracer: o.tracer}, nil
}

// CheckReadiness checks if the service is ready to serve requests
func (s *dbService) CheckReadiness(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Search runs one page of a search
func (s *dbService) Search(ctx context.Context, params service.SearchParams) ([]service.Result, error) {
	ctx, span := s.startSpan(ctx, "dbService.Search")
	defer span.End()

	if err := params.Validate(); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		otel.AttrPageSize.Int(params.Limit),
		otel.AttrPageOffset.Int(params.Offset),
		otel.AttrSort.String(string(params.Sort)),
		otel.AttrHasQuery.Bool(params.Query != ""),
	)

	slog.DebugContext(ctx, "Search query",
		"query", params.Query,
		"sort", params.Sort,
		"limit", params.Limit,
		"offset", params.Offset,
		"request_id", middleware.GetReqID(ctx))

	rows, err := sqlc.New(s.pool).SearchProjects(ctx, sqlc.SearchProjectsParams{
		Spigot:      params.Spigot,
		Modrinth:    params.Modrinth,
		Hangar:      params.Hangar,
		Query:       params.Query,
		Name:        params.Name,
		Pattern:     params.Pattern(),
		Description: params.Description,
		Author:      params.Author,
		Sort:        string(params.Sort),
		Size:        int32(params.Limit),  //nolint:gosec // capped at MaxPageSize
		Skip:        int32(params.Offset), //nolint:gosec // offsets beyond int32 return nothing anyway
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}

	results := make([]service.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, toResult(row))
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(results)))
	return results, nil
}

func toResult(row sqlc.SearchProjectsRow) service.Result {
	res := service.Result{
		ID:                     row.ID,
		DateCreated:            row.DateCreated,
		DateUpdated:            row.DateUpdated,
		LatestMinecraftVersion: row.LatestMinecraftVersion,
		Downloads:              row.Downloads,
		LikesAndStars:          row.LikesAndStars,
		FollowsAndWatchers:     row.FollowsAndWatchers,
		FullCount:              row.FullCount,
	}

	if row.SpigotID != nil {
		res.Spigot = &service.SpigotProject{
			ID:                     *row.SpigotID,
			Name:                   row.SpigotName,
			Description:            deref(row.SpigotDescription),
			Author:                 deref(row.SpigotAuthor),
			Slug:                   deref(row.SpigotSlug),
			Downloads:              deref(row.SpigotDownloads),
			Likes:                  deref(row.SpigotLikes),
			LatestMinecraftVersion: row.SpigotLatestMinecraftVersion,
			VersionName:            row.SpigotVersionName,
			Premium:                deref(row.SpigotPremium),
			Abandoned:              deref(row.SpigotAbandoned),
			IconData:               deref(row.SpigotIconData),
		}
	}
	if row.ModrinthID != nil {
		res.Modrinth = &service.ModrinthProject{
			ID:                     *row.ModrinthID,
			Slug:                   deref(row.ModrinthSlug),
			Name:                   deref(row.ModrinthName),
			Description:            deref(row.ModrinthDescription),
			Author:                 deref(row.ModrinthAuthor),
			Downloads:              deref(row.ModrinthDownloads),
			Follows:                deref(row.ModrinthFollows),
			LatestMinecraftVersion: row.ModrinthLatestMinecraftVersion,
			VersionName:            row.ModrinthVersionName,
			IconURL:                deref(row.ModrinthIconUrl),
			Archived:               deref(row.ModrinthArchived),
		}
	}
	if row.HangarSlug != nil {
		res.Hangar = &service.HangarProject{
			Slug:                   *row.HangarSlug,
			Name:                   deref(row.HangarName),
			Description:            deref(row.HangarDescription),
			Author:                 deref(row.HangarAuthor),
			Downloads:              deref(row.HangarDownloads),
			Stars:                  deref(row.HangarStars),
			Watchers:               deref(row.HangarWatchers),
			LatestMinecraftVersion: row.HangarLatestMinecraftVersion,
			VersionName:            row.HangarVersionName,
			AvatarURL:              deref(row.HangarAvatarUrl),
		}
	}
	if row.SourceRepositoryHost != nil && row.SourceRepositoryOwner != nil && row.SourceRepositoryName != nil {
		res.SourceRepository = &repository.Identity{
			Host:  *row.SourceRepositoryHost,
			Owner: *row.SourceRepositoryOwner,
			Name:  *row.SourceRepositoryName,
		}
	}
	return res
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
