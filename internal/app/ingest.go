package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/plugin-index/internal/resolve"
	"github.com/stacklok/plugin-index/internal/sources"
	pkgsync "github.com/stacklok/plugin-index/internal/sync"
)

// Populate crawls a whole registry listing
func (c *Components) Populate(ctx context.Context, registry sources.Registry, item sources.ItemKind) (pkgsync.Stats, error) {
	adapter, err := c.Adapter(registry, item)
	if err != nil {
		return pkgsync.Stats{}, err
	}
	return c.runners[registry].Populate(ctx, adapter)
}

// Update crawls a registry listing newest first until it reaches the
// stored watermark
func (c *Components) Update(ctx context.Context, registry sources.Registry, item sources.ItemKind) (pkgsync.Stats, error) {
	adapter, err := c.Adapter(registry, item)
	if err != nil {
		return pkgsync.Stats{}, err
	}
	watermark, err := c.State.Watermark(ctx, registry, item)
	if err != nil {
		return pkgsync.Stats{}, fmt.Errorf("failed to read watermark: %w", err)
	}
	slog.DebugContext(ctx, "Resuming from watermark", "registry", registry, "item", item, "watermark", watermark)
	return c.runners[registry].Update(ctx, adapter, watermark)
}

// UpdateRegistry updates every item kind of a registry in order. Spigot
// authors go first since resources reference them.
func (c *Components) UpdateRegistry(ctx context.Context, registry sources.Registry) error {
	for _, item := range sources.Kinds(registry) {
		if _, err := c.Update(ctx, registry, item); err != nil {
			return fmt.Errorf("update %s %s: %w", registry, item, err)
		}
	}
	return nil
}

// UpdateAll updates every registry concurrently. A failing registry does not
// cancel the others.
func (c *Components) UpdateAll(ctx context.Context) error {
	errs := make([]error, len(Registries))
	var g errgroup.Group
	for i, registry := range Registries {
		g.Go(func() error {
			errs[i] = c.UpdateRegistry(ctx, registry)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Refresh rebuilds the common projects
func (c *Components) Refresh(ctx context.Context) (*resolve.Result, error) {
	return c.Refresher.Refresh(ctx)
}
