package database

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	connString := db.Config().ConnString()

	m, err := NewFromConnectionString(connString)
	require.NoError(t, err)
	defer func() { _, _ = m.Close() }()

	// Count the number of logical migrations
	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, fnames)

	for i := 1; i <= len(fnames); i++ {
		// step up
		err = m.Steps(i)
		assert.NoError(t, err)

		// step down
		err = m.Steps(-i)
		assert.NoError(t, err)

		// step up again
		err = m.Steps(i)
		assert.NoError(t, err)
	}

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(len(fnames)), version)
}

func TestMigrateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "postgres url",
			in:   "postgres://u:p@localhost:5432/db?sslmode=disable",
			want: "pgx5://u:p@localhost:5432/db?sslmode=disable",
		},
		{
			name: "already pgx5",
			in:   "pgx5://localhost/db",
			want: "pgx5://localhost/db",
		},
		{
			name: "keyword dsn",
			in:   "host=db port=5432 user=app password=secret dbname=plugins sslmode=require connect_timeout=10",
			want: "pgx5://app:secret@db:5432/plugins?connect_timeout=10&sslmode=require",
		},
		{
			name:    "keyword dsn without host",
			in:      "user=app dbname=plugins",
			wantErr: true,
		},
		{
			name:    "garbage",
			in:      "not a dsn",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := migrateURL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
