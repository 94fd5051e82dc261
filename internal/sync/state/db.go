package state

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/plugin-index/internal/db/sqlc"
	"github.com/stacklok/plugin-index/internal/sources"
)

const defaultListLimit = 50

type dbStateService struct {
	pool *pgxpool.Pool
}

var _ Service = (*dbStateService)(nil)

// NewDBStateService creates a new database-backed state service
func NewDBStateService(pool *pgxpool.Pool) Service {
	return &dbStateService{
		pool: pool,
	}
}

func (d *dbStateService) Append(ctx context.Context, entry Entry) (int64, error) {
	items := entry.ItemsProcessed
	if items > math.MaxInt32 {
		items = math.MaxInt32
	}
	id, err := sqlc.New(d.pool).InsertIngestLog(ctx, sqlc.InsertIngestLogParams{
		Action:         string(entry.Action),
		Registry:       string(entry.Registry),
		Item:           string(entry.Item),
		DateStarted:    entry.DateStarted,
		DateFinished:   entry.DateFinished,
		ItemsProcessed: int32(items), //nolint:gosec // clamped above
		Success:        entry.Success,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append ingest log: %w", err)
	}
	return id, nil
}

func (d *dbStateService) Latest(ctx context.Context, registry sources.Registry, item sources.ItemKind) (*Entry, error) {
	row, err := sqlc.New(d.pool).GetLatestIngestLog(ctx, sqlc.GetLatestIngestLogParams{
		Registry: string(registry),
		Item:     string(item),
	})
	return toEntry(row, err, registry, item)
}

func (d *dbStateService) LatestSuccessful(
	ctx context.Context, registry sources.Registry, item sources.ItemKind,
) (*Entry, error) {
	row, err := sqlc.New(d.pool).GetLatestSuccessfulIngestLog(ctx, sqlc.GetLatestSuccessfulIngestLogParams{
		Registry: string(registry),
		Item:     string(item),
	})
	return toEntry(row, err, registry, item)
}

func (d *dbStateService) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > math.MaxInt32 {
		limit = defaultListLimit
	}
	rows, err := sqlc.New(d.pool).ListIngestLogs(ctx, int32(limit)) //nolint:gosec // bounded above
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest logs: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, fromRow(row))
	}
	return entries, nil
}

func (d *dbStateService) Watermark(ctx context.Context, registry sources.Registry, item sources.ItemKind) (int64, error) {
	queries := sqlc.New(d.pool)
	var get func(context.Context) (int64, error)
	switch {
	case registry == sources.Spigot && item == sources.KindResource:
		get = queries.GetSpigotResourceWatermark
	case registry == sources.Spigot && item == sources.KindAuthor:
		get = queries.GetSpigotAuthorWatermark
	case registry == sources.Modrinth && item == sources.KindProject:
		get = queries.GetModrinthProjectWatermark
	case registry == sources.Hangar && item == sources.KindProject:
		get = queries.GetHangarProjectWatermark
	default:
		return 0, fmt.Errorf("no watermark for %s %s", registry, item)
	}
	w, err := get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s %s watermark: %w", registry, item, err)
	}
	return w, nil
}

func toEntry(row sqlc.IngestLog, err error, registry sources.Registry, item sources.ItemKind) (*Entry, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w for %s %s", ErrNoLog, registry, item)
		}
		return nil, fmt.Errorf("failed to read ingest log: %w", err)
	}
	entry := fromRow(row)
	return &entry, nil
}

func fromRow(row sqlc.IngestLog) Entry {
	return Entry{
		ID:             row.ID,
		Action:         Action(row.Action),
		Registry:       sources.Registry(row.Registry),
		Item:           sources.ItemKind(row.Item),
		DateStarted:    row.DateStarted,
		DateFinished:   row.DateFinished,
		ItemsProcessed: int(row.ItemsProcessed),
		Success:        row.Success,
	}
}
