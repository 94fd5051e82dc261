package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/plugin-index/internal/config"
)

func countingTask(n *atomic.Int32, err error) Task {
	return func(context.Context) error {
		n.Add(1)
		return err
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	tests := []struct {
		name    string
		update  Task
		cfg     *config.ScheduleConfig
		wantErr string
	}{
		{name: "missing update task", cfg: &config.ScheduleConfig{Update: "@hourly"}, wantErr: "update task is required"},
		{name: "missing schedule", update: noop, wantErr: "schedule.update is required"},
		{name: "empty update spec", update: noop, cfg: &config.ScheduleConfig{}, wantErr: "schedule.update is required"},
		{name: "valid", update: noop, cfg: &config.ScheduleConfig{Update: "@hourly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(tt.update, nil, tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	c, err := New(func(context.Context) error { return nil }, nil, &config.ScheduleConfig{Update: "not a spec"})
	require.NoError(t, err)
	err = c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid update schedule")
}

func TestRunOnStartRefreshesAfterUpdate(t *testing.T) {
	t.Parallel()

	var updates, refreshes atomic.Int32
	c, err := New(
		countingTask(&updates, errors.New("modrinth: HTTP 503")),
		countingTask(&refreshes, nil),
		&config.ScheduleConfig{Update: "@hourly"},
		WithRunOnStart(true),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	// A failed update still triggers the refresh.
	assert.Eventually(t, func() bool { return refreshes.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), updates.Load())

	require.NoError(t, c.Stop())
	require.NoError(t, <-errCh)
}

func TestSeparateRefreshSchedule(t *testing.T) {
	t.Parallel()

	var updates, refreshes atomic.Int32
	c, err := New(
		countingTask(&updates, nil),
		countingTask(&refreshes, nil),
		&config.ScheduleConfig{Update: "@hourly", Refresh: "@every 1s"},
		WithRunOnStart(true),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	assert.Eventually(t, func() bool { return refreshes.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(1), updates.Load())

	cancel()
	require.NoError(t, <-errCh)
}

func TestTasksDoNotOverlap(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var updates, refreshes atomic.Int32
	update := func(ctx context.Context) error {
		updates.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}
	c, err := New(update, countingTask(&refreshes, nil),
		&config.ScheduleConfig{Update: "@hourly", Refresh: "@every 1s"},
		WithRunOnStart(true),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return updates.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	// Refresh ticks fire while the update holds the lock and are skipped.
	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, int32(0), refreshes.Load())

	close(release)
	assert.Eventually(t, func() bool { return refreshes.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, c.Stop())
	require.NoError(t, <-errCh)
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	var updates atomic.Int32
	c, err := New(countingTask(&updates, nil), nil, &config.ScheduleConfig{Update: "@hourly"}, WithRunOnStart(true))
	require.NoError(t, err)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Start(context.Background()))
	assert.Zero(t, updates.Load())
}

func TestStopRacesStart(t *testing.T) {
	t.Parallel()

	for range 20 {
		c, err := New(func(context.Context) error { return nil }, nil, &config.ScheduleConfig{Update: "@hourly"})
		require.NoError(t, err)

		errCh := make(chan error, 1)
		go func() { errCh <- c.Start(context.Background()) }()
		stopCh := make(chan error, 1)
		go func() { stopCh <- c.Stop() }()

		require.NoError(t, <-stopCh)
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Start did not return after Stop")
		}
	}
}
