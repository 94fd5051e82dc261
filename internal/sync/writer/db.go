package writer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/plugin-index/internal/db/sqlc"
	"github.com/stacklok/plugin-index/internal/repository"
	"github.com/stacklok/plugin-index/internal/sources"
)

// foreignKeyViolation is the SQLSTATE for foreign_key_violation
const foreignKeyViolation = "23503"

// dbWriter is a Writer implementation that persists records to Postgres
type dbWriter struct {
	pool *pgxpool.Pool
}

var _ Writer = (*dbWriter)(nil)

// NewDBWriter creates a new dbWriter with the given connection pool.
// The caller is responsible for closing the pool when done.
func NewDBWriter(pool *pgxpool.Pool) (Writer, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbWriter{pool: pool}, nil
}

// Store upserts the record keyed by its registry primary key.
func (d *dbWriter) Store(ctx context.Context, record sources.Record) error {
	queries := sqlc.New(d.pool)

	var err error
	switch r := record.(type) {
	case *sources.SpigotAuthor:
		err = queries.UpsertSpigotAuthor(ctx, sqlc.UpsertSpigotAuthorParams{ID: r.ID, Name: r.Name})
	case *sources.SpigotResource:
		err = queries.UpsertSpigotResource(ctx, spigotResourceParams(r))
	case *sources.ModrinthProject:
		err = queries.UpsertModrinthProject(ctx, modrinthProjectParams(r))
	case *sources.HangarProject:
		err = queries.UpsertHangarProject(ctx, hangarProjectParams(r))
	default:
		return fmt.Errorf("unsupported record type %T", record)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("failed to store %s: %w: %s", record.Key(), ErrMissingReference, pgErr.ConstraintName)
		}
		return fmt.Errorf("failed to store %s: %w", record.Key(), err)
	}
	return nil
}

// identityColumns splits an identity into its three nullable columns
func identityColumns(id *repository.Identity) (host, owner, name *string) {
	if id == nil {
		return nil, nil, nil
	}
	return &id.Host, &id.Owner, &id.Name
}

func spigotResourceParams(r *sources.SpigotResource) sqlc.UpsertSpigotResourceParams {
	host, owner, name := identityColumns(r.SourceRepository)
	return sqlc.UpsertSpigotResourceParams{
		ID:                     r.ID,
		Name:                   r.Name,
		ParsedName:             r.ParsedName,
		Description:            r.Description,
		Slug:                   r.Slug,
		AuthorID:               r.AuthorID,
		DateCreated:            r.DateCreated,
		DateUpdated:            r.DateUpdated,
		Downloads:              r.Downloads,
		Likes:                  r.Likes,
		Premium:                r.Premium,
		Abandoned:              r.Abandoned,
		IconUrl:                r.IconURL,
		IconData:               r.IconData,
		LatestMinecraftVersion: r.LatestMinecraftVersion,
		SourceUrl:              r.SourceURL,
		SourceRepositoryHost:   host,
		SourceRepositoryOwner:  owner,
		SourceRepositoryName:   name,
		VersionID:              r.VersionID,
		VersionName:            r.VersionName,
	}
}

func modrinthProjectParams(p *sources.ModrinthProject) sqlc.UpsertModrinthProjectParams {
	host, owner, name := identityColumns(p.SourceRepository)
	return sqlc.UpsertModrinthProjectParams{
		ID:                     p.ID,
		Slug:                   p.Slug,
		Title:                  p.Title,
		Description:            p.Description,
		Author:                 p.Author,
		DateCreated:            p.DateCreated,
		DateModified:           p.DateModified,
		Downloads:              p.Downloads,
		Follows:                p.Follows,
		VersionID:              p.VersionID,
		VersionName:            p.VersionName,
		IconUrl:                p.IconURL,
		MonetizationStatus:     p.MonetizationStatus,
		Archived:               p.Archived,
		LatestMinecraftVersion: p.LatestMinecraftVersion,
		SourceUrl:              p.SourceURL,
		SourceRepositoryHost:   host,
		SourceRepositoryOwner:  owner,
		SourceRepositoryName:   name,
	}
}

func hangarProjectParams(p *sources.HangarProject) sqlc.UpsertHangarProjectParams {
	host, owner, name := identityColumns(p.SourceRepository)
	return sqlc.UpsertHangarProjectParams{
		Slug:                   p.Slug,
		Author:                 p.Author,
		Name:                   p.Name,
		Description:            p.Description,
		DateCreated:            p.DateCreated,
		DateUpdated:            p.DateUpdated,
		Downloads:              p.Downloads,
		Stars:                  p.Stars,
		Watchers:               p.Watchers,
		AvatarUrl:              p.AvatarURL,
		VersionName:            p.VersionName,
		LatestMinecraftVersion: p.LatestMinecraftVersion,
		SourceUrl:              p.SourceURL,
		SourceRepositoryHost:   host,
		SourceRepositoryOwner:  owner,
		SourceRepositoryName:   name,
	}
}
