package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stacklok/plugin-index/internal/config"
)

// Task is one scheduled unit of work
type Task func(ctx context.Context) error

// Coordinator manages scheduled ingest work
type Coordinator interface {
	// Start schedules the tasks and blocks until the context is cancelled
	Start(ctx context.Context) error

	// Stop cancels the schedule and waits for a running task to return
	Stop() error
}

type defaultCoordinator struct {
	update     Task
	refresh    Task
	cfg        *config.ScheduleConfig
	runOnStart bool
	now        func() time.Time

	// running serializes tasks across both schedules
	running gosync.Mutex
	initial gosync.WaitGroup

	// mu guards cancelFunc and stopped, which Start and Stop touch from
	// different goroutines
	mu         gosync.Mutex
	cancelFunc context.CancelFunc
	stopped    bool
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithRunOnStart runs the update task once as soon as Start is called
func WithRunOnStart(run bool) Option {
	return func(c *defaultCoordinator) {
		c.runOnStart = run
	}
}

// New creates a new coordinator. refresh may be nil.
func New(update, refresh Task, cfg *config.ScheduleConfig, opts ...Option) (Coordinator, error) {
	if update == nil {
		return nil, fmt.Errorf("update task is required")
	}
	if cfg == nil || cfg.Update == "" {
		return nil, fmt.Errorf("schedule.update is required")
	}
	c := &defaultCoordinator{
		update:  update,
		refresh: refresh,
		cfg:     cfg,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start begins scheduled coordination. It returns at once if Stop was
// already called.
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		close(c.done)
		slog.Info("Scheduler shutting down")
	}()

	scheduler := cron.New(cron.WithLogger(cronLogger{}), cron.WithChain(cron.Recover(cronLogger{})))

	updateJob := c.updateJob(coordCtx)
	if _, err := scheduler.AddFunc(c.cfg.Update, updateJob); err != nil {
		cancel()
		return fmt.Errorf("invalid update schedule %q: %w", c.cfg.Update, err)
	}
	if c.cfg.Refresh != "" && c.refresh != nil {
		if _, err := scheduler.AddFunc(c.cfg.Refresh, c.refreshJob(coordCtx)); err != nil {
			cancel()
			return fmt.Errorf("invalid refresh schedule %q: %w", c.cfg.Refresh, err)
		}
	}

	slog.Info("Starting scheduler", "update", c.cfg.Update, "refresh", c.refreshSpec())
	scheduler.Start()

	if c.runOnStart {
		c.initial.Add(1)
		go func() {
			defer c.initial.Done()
			updateJob()
		}()
	}

	<-coordCtx.Done()
	slog.Info("Scheduler stopping")
	// Wait for a running job to return
	<-scheduler.Stop().Done()
	c.initial.Wait()
	return nil
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	c.stopped = true
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping scheduler")
		cancel()
		<-c.done
	}
	return nil
}

func (c *defaultCoordinator) refreshSpec() string {
	if c.cfg.Refresh == "" {
		return "after update"
	}
	return c.cfg.Refresh
}

func (c *defaultCoordinator) updateJob(ctx context.Context) func() {
	return func() {
		if !c.running.TryLock() {
			slog.WarnContext(ctx, "Skipping scheduled update, previous task still running")
			return
		}
		defer c.running.Unlock()
		if ctx.Err() != nil {
			return
		}

		err := c.runTask(ctx, "update", c.update)
		if c.cfg.Refresh == "" && c.refresh != nil {
			// Partial updates still change the stored records.
			err = errors.Join(err, c.runTask(ctx, "refresh", c.refresh))
		}
		if err != nil {
			slog.ErrorContext(ctx, "Scheduled work finished with errors", "error", err)
		}
	}
}

func (c *defaultCoordinator) refreshJob(ctx context.Context) func() {
	return func() {
		if !c.running.TryLock() {
			slog.WarnContext(ctx, "Skipping scheduled refresh, previous task still running")
			return
		}
		defer c.running.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := c.runTask(ctx, "refresh", c.refresh); err != nil {
			slog.ErrorContext(ctx, "Scheduled refresh failed", "error", err)
		}
	}
}

func (c *defaultCoordinator) runTask(ctx context.Context, name string, task Task) error {
	started := c.now()
	slog.InfoContext(ctx, "Starting scheduled task", "task", name)
	if err := task(ctx); err != nil {
		slog.ErrorContext(ctx, "Scheduled task failed", "task", name, "error", err, "duration", c.now().Sub(started))
		return fmt.Errorf("%s: %w", name, err)
	}
	slog.InfoContext(ctx, "Scheduled task finished", "task", name, "duration", c.now().Sub(started))
	return nil
}
