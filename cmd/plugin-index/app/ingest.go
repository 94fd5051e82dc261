package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/plugin-index/internal/app"
	"github.com/stacklok/plugin-index/internal/sources"
	pkgsync "github.com/stacklok/plugin-index/internal/sync"
)

const allRegistries = "all"

// target is a parsed <registry> [item] argument pair
type target struct {
	registry sources.Registry
	items    []sources.ItemKind
}

// parseTarget validates the registry and item arguments. A missing item
// selects every item kind of the registry in ingest order.
func parseTarget(args []string) (target, error) {
	registry, err := sources.ParseRegistry(args[0])
	if err != nil {
		return target{}, err
	}
	if len(args) == 1 {
		return target{registry: registry, items: sources.Kinds(registry)}, nil
	}
	item, err := sources.ParseItemKind(registry, args[1])
	if err != nil {
		return target{}, err
	}
	return target{registry: registry, items: []sources.ItemKind{item}}, nil
}

func logStats(ctx context.Context, verb string, registry sources.Registry, item sources.ItemKind, stats pkgsync.Stats) {
	slog.InfoContext(ctx, "Run complete",
		"command", verb,
		"registry", registry,
		"item", item,
		"pages", stats.Pages,
		"processed", stats.Processed,
		"failed", stats.FailedTotal())
}

func newPopulateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "populate <registry> [item]",
		Short: "Crawl a whole registry listing",
		Long: `Crawl a whole registry listing and upsert every item.

Registries are spigot, modrinth and hangar. Spigot has the items author and
resource; modrinth and hangar have project. Without an item every kind of the
registry is crawled, Spigot authors first.

Examples:
  plugin-index populate spigot author --config config.yaml
  plugin-index populate hangar --config config.yaml --timeout 2h`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTarget(args)
			if err != nil {
				return err
			}
			return withComponents(cmd.Context(), v, func(ctx context.Context, c *app.Components) error {
				for _, item := range t.items {
					stats, err := c.Populate(ctx, t.registry, item)
					if err != nil {
						return fmt.Errorf("populate %s %s: %w", t.registry, item, err)
					}
					logStats(ctx, "populate", t.registry, item, stats)
				}
				return nil
			})
		},
	}
}

func newUpdateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "update <registry|all> [item]",
		Short: "Crawl recently changed items until the stored watermark",
		Long: `Crawl a registry listing newest first and stop at the first item that is not
newer than the newest stored one. "all" updates every registry concurrently.

Examples:
  plugin-index update modrinth project --config config.yaml
  plugin-index update all --config config.yaml`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == allRegistries {
				if len(args) > 1 {
					return fmt.Errorf("update all takes no item argument")
				}
				return withComponents(cmd.Context(), v, func(ctx context.Context, c *app.Components) error {
					return c.UpdateAll(ctx)
				})
			}
			t, err := parseTarget(args)
			if err != nil {
				return err
			}
			return withComponents(cmd.Context(), v, func(ctx context.Context, c *app.Components) error {
				for _, item := range t.items {
					stats, err := c.Update(ctx, t.registry, item)
					if err != nil {
						return fmt.Errorf("update %s %s: %w", t.registry, item, err)
					}
					logStats(ctx, "update", t.registry, item, stats)
				}
				return nil
			})
		},
	}
}

func newRefreshCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the common projects from the stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withComponents(cmd.Context(), v, func(ctx context.Context, c *app.Components) error {
				res, err := c.Refresh(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d common projects (%d upserted, %d deleted)\n",
					res.Projects, res.Upserted, res.Deleted)
				return nil
			})
		},
	}
}
