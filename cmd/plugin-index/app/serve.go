package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/plugin-index/internal/app"
	"github.com/stacklok/plugin-index/internal/sync/coordinator"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the search API server",
		Long: `Start the HTTP API serving search, ingest freshness, health and metrics.

Pending migrations are applied first unless --skip-migrate is set. With
--schedule the cron schedule from the configuration runs in the same process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v)
		},
	}
	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	cmd.Flags().Bool("skip-migrate", false, "Do not apply pending migrations on start")
	cmd.Flags().Bool("schedule", false, "Also run the configured ingest schedule")
	for _, name := range []string{"address", "skip-migrate", "schedule"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}
	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	s, err := readSettings(v)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(s)
	if err != nil {
		return err
	}

	if !v.GetBool("skip-migrate") {
		slog.Info("Applying database migrations")
		if err := migrate(cfg.Database, true, 0); err != nil {
			return err
		}
	}

	ctx, cancel := commandContext(cmd.Context(), s)
	defer cancel()

	c, err := app.Build(ctx, app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		_ = c.Close(context.WithoutCancel(ctx))
	}()

	var opts []app.ServerOption
	if addr := v.GetString("address"); addr != "" {
		opts = append(opts, app.WithAddress(addr))
	}
	if v.GetBool("schedule") {
		coord, err := c.NewCoordinator()
		if err != nil {
			return err
		}
		opts = append(opts, app.WithCoordinator(coord))
	}

	server, err := app.NewServerApp(ctx, c, opts...)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if err := server.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return <-errCh
}

func newScheduleCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the ingest schedule in the foreground",
		Long: `Run "update all" on the schedule.update cron spec. The refresh follows every
update unless schedule.refresh sets its own spec. Runs never overlap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runOnStart := v.GetBool("run-on-start")
			return withComponents(cmd.Context(), v, func(ctx context.Context, c *app.Components) error {
				coord, err := c.NewCoordinator(coordinator.WithRunOnStart(runOnStart))
				if err != nil {
					return err
				}
				return coord.Start(ctx)
			})
		},
	}
	cmd.Flags().Bool("run-on-start", false, "Run an update immediately instead of waiting for the first tick")
	if err := v.BindPFlag("run-on-start", cmd.Flags().Lookup("run-on-start")); err != nil {
		slog.Error("Error binding flag", "flag", "run-on-start", "error", err)
	}
	return cmd
}
