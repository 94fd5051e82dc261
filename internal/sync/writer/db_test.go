package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/plugin-index/database"
	"github.com/stacklok/plugin-index/internal/db/sqlc"
	"github.com/stacklok/plugin-index/internal/repository"
	"github.com/stacklok/plugin-index/internal/sources"
)

func TestNewDBWriter(t *testing.T) {
	t.Parallel()

	w, err := NewDBWriter(nil)
	require.Error(t, err)
	assert.Nil(t, w)
}

func TestIdentityColumns(t *testing.T) {
	t.Parallel()

	host, owner, name := identityColumns(nil)
	assert.Nil(t, host)
	assert.Nil(t, owner)
	assert.Nil(t, name)

	host, owner, name = identityColumns(&repository.Identity{Host: "github.com", Owner: "alice", Name: "foo"})
	assert.Equal(t, "github.com", *host)
	assert.Equal(t, "alice", *owner)
	assert.Equal(t, "foo", *name)
}

func TestDBWriterStore(t *testing.T) {
	t.Parallel()

	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)

	ctx := context.Background()
	w, err := NewDBWriter(pool)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	resource := &sources.SpigotResource{
		ID:               10,
		Name:             "Foo",
		Description:      "does foo",
		Slug:             "foo",
		AuthorID:         5,
		DateCreated:      now,
		DateUpdated:      now,
		IconURL:          "",
		SourceRepository: &repository.Identity{Host: "github.com", Owner: "alice", Name: "foo"},
		VersionID:        1,
	}

	// The author is not stored yet
	err = w.Store(ctx, resource)
	require.ErrorIs(t, err, ErrMissingReference)

	require.NoError(t, w.Store(ctx, &sources.SpigotAuthor{ID: 5, Name: "alice"}))
	require.NoError(t, w.Store(ctx, resource))

	// Storing again is an update
	resource.Downloads = 7
	require.NoError(t, w.Store(ctx, resource))

	got, err := sqlc.New(pool).GetSpigotResource(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(7), got.Downloads)
	assert.Equal(t, "alice", *got.SourceRepositoryOwner)

	require.NoError(t, w.Store(ctx, &sources.ModrinthProject{
		ID: "AAAA", Slug: "foo", Title: "Foo", DateCreated: now, DateModified: now, VersionID: "v1",
	}))
	mp, err := sqlc.New(pool).GetModrinthProject(ctx, "AAAA")
	require.NoError(t, err)
	assert.Nil(t, mp.SourceRepositoryHost)

	require.NoError(t, w.Store(ctx, &sources.HangarProject{
		Slug: "Foo", Author: "alice", Name: "Foo", DateCreated: now, DateUpdated: now, Stars: 3,
	}))
	hp, err := sqlc.New(pool).GetHangarProject(ctx, "Foo")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hp.Stars)
}
