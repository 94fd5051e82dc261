package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/plugin-index/database"
	"github.com/stacklok/plugin-index/internal/db/sqlc"
	"github.com/stacklok/plugin-index/internal/sources"
)

func TestNewDBStateService(t *testing.T) {
	t.Parallel()

	service := NewDBStateService(nil)
	require.NotNil(t, service)

	dbService, ok := service.(*dbStateService)
	require.True(t, ok)
	assert.Nil(t, dbService.pool)
}

func TestDBStateService(t *testing.T) {
	t.Parallel()

	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)

	ctx := context.Background()
	svc := NewDBStateService(pool)

	_, err := svc.Latest(ctx, sources.Hangar, sources.KindProject)
	require.ErrorIs(t, err, ErrNoLog)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, e := range []Entry{
		{Action: ActionPopulate, Registry: sources.Hangar, Item: sources.KindProject, ItemsProcessed: 900, Success: true},
		{Action: ActionUpdate, Registry: sources.Hangar, Item: sources.KindProject, ItemsProcessed: 4, Success: false},
	} {
		e.DateStarted = base.Add(time.Duration(i) * time.Hour)
		e.DateFinished = e.DateStarted.Add(10 * time.Minute)
		id, err := svc.Append(ctx, e)
		require.NoError(t, err)
		require.NotZero(t, id)
	}

	latest, err := svc.Latest(ctx, sources.Hangar, sources.KindProject)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, latest.Action)
	assert.False(t, latest.Success)
	assert.Equal(t, 4, latest.ItemsProcessed)
	assert.True(t, latest.DateFinished.Equal(base.Add(70*time.Minute)))

	ok, err := svc.LatestSuccessful(ctx, sources.Hangar, sources.KindProject)
	require.NoError(t, err)
	assert.Equal(t, ActionPopulate, ok.Action)

	entries, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionUpdate, entries[0].Action)

	// Watermarks come from the stored records, not the log
	w, err := svc.Watermark(ctx, sources.Hangar, sources.KindProject)
	require.NoError(t, err)
	assert.Zero(t, w)

	updated := time.Unix(1_710_000_000, 0).UTC()
	require.NoError(t, sqlc.New(pool).UpsertHangarProject(ctx, sqlc.UpsertHangarProjectParams{
		Slug: "Foo", Author: "alice", Name: "Foo", DateCreated: updated, DateUpdated: updated,
	}))
	w, err = svc.Watermark(ctx, sources.Hangar, sources.KindProject)
	require.NoError(t, err)
	assert.Equal(t, updated.UnixMilli(), w)

	_, err = svc.Watermark(ctx, sources.Modrinth, sources.KindAuthor)
	require.Error(t, err)
}
