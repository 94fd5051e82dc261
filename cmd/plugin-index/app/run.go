package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/stacklok/plugin-index/internal/app"
)

// commandContext is cancelled on SIGINT, SIGTERM or when --timeout elapses
func commandContext(parent context.Context, s settings) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if s.timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// withComponents loads the configuration, builds the components and runs fn
// under the command context
func withComponents(parent context.Context, v *viper.Viper, fn func(ctx context.Context, c *app.Components) error) error {
	s, err := readSettings(v)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(s)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(parent, s)
	defer cancel()

	c, err := app.Build(ctx, app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		_ = c.Close(context.WithoutCancel(ctx))
	}()

	return fn(ctx, c)
}
