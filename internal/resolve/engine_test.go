package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/plugin-index/database"
	"github.com/stacklok/plugin-index/internal/db/sqlc"
	"github.com/stacklok/plugin-index/internal/sources"
	"github.com/stacklok/plugin-index/internal/sync/state"
)

var created = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func seedModrinth(t *testing.T, q *sqlc.Queries, id, owner, name string) {
	t.Helper()
	require.NoError(t, q.UpsertModrinthProject(context.Background(), sqlc.UpsertModrinthProjectParams{
		ID:                    id,
		Slug:                  id,
		Title:                 id,
		Author:                owner,
		DateCreated:           created,
		DateModified:          created,
		VersionID:             "v-" + id,
		MonetizationStatus:    "monetized",
		SourceRepositoryHost:  ptr("github.com"),
		SourceRepositoryOwner: ptr(owner),
		SourceRepositoryName:  ptr(name),
	}))
}

func seedHangar(t *testing.T, q *sqlc.Queries, slug, owner, name string) {
	t.Helper()
	require.NoError(t, q.UpsertHangarProject(context.Background(), sqlc.UpsertHangarProjectParams{
		Slug:                  slug,
		Author:                owner,
		Name:                  slug,
		DateCreated:           created,
		DateUpdated:           created,
		SourceRepositoryHost:  ptr("github.com"),
		SourceRepositoryOwner: ptr(owner),
		SourceRepositoryName:  ptr(name),
	}))
}

func TestEngineRefresh(t *testing.T) {
	t.Parallel()

	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)

	ctx := context.Background()
	q := sqlc.New(pool)
	log := state.NewDBStateService(pool)
	engine := NewEngine(pool, log)

	seedModrinth(t, q, "AAA", "alice", "foo")
	seedHangar(t, q, "Foo", "alice", "foo")
	seedHangar(t, q, "Bar", "bob", "bar")

	res, err := engine.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Projects)
	assert.Equal(t, int64(0), res.Deleted)
	assert.Equal(t, int64(2), res.Upserted)

	first, err := q.ListCommonProjects(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// A second run with unchanged sources writes nothing.
	res, err = engine.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Deleted)
	assert.Equal(t, int64(0), res.Upserted)
	second, err := q.ListCommonProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Moving the modrinth project to another repository splits the group.
	seedModrinth(t, q, "AAA", "alice", "moved")
	res, err = engine.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Projects)

	third, err := q.ListCommonProjects(ctx)
	require.NoError(t, err)
	require.Len(t, third, 3)
	ids := make(map[uuid.UUID]bool)
	for _, p := range first {
		ids[p.ID] = true
	}
	kept := 0
	for _, p := range third {
		if ids[p.ID] {
			kept++
		}
	}
	assert.Equal(t, 2, kept)

	count, err := q.CountCommonProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	latest, err := log.Latest(ctx, sources.Common, sources.KindProject)
	require.NoError(t, err)
	assert.Equal(t, state.ActionRefresh, latest.Action)
	assert.True(t, latest.Success)
	assert.Equal(t, 3, latest.ItemsProcessed)
}

func TestEngineRefreshMovesLinks(t *testing.T) {
	t.Parallel()

	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)

	ctx := context.Background()
	q := sqlc.New(pool)
	engine := NewEngine(pool, state.NewDBStateService(pool))

	seedModrinth(t, q, "AAA", "alice", "foo")
	seedHangar(t, q, "Foo", "alice", "other")
	_, err := engine.Refresh(ctx)
	require.NoError(t, err)

	// The hangar link moves from its own row into the modrinth row.
	seedHangar(t, q, "Foo", "alice", "foo")
	res, err := engine.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Projects)
	assert.Equal(t, int64(1), res.Deleted)

	rows, err := q.ListCommonProjects(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ModrinthID)
	require.NotNil(t, rows[0].HangarSlug)
	assert.Equal(t, "Foo", *rows[0].HangarSlug)
}
