// Package app provides the cobra commands of the plugin-index CLI.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/plugin-index/internal/config"
	"github.com/stacklok/plugin-index/pkg/versions"
)

const (
	flagConfig  = "config"
	flagTimeout = "timeout"
)

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "plugin-index",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Minecraft plugin index",
		Long: `plugin-index ingests plugin metadata from Spigot, Modrinth and Hangar, links
records that share a source repository into common projects and serves search
over them.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "Path to configuration file (YAML format)")
	rootCmd.PersistentFlags().Duration(flagTimeout, 0, "Abort the command after this duration (0 = no limit)")
	for _, name := range []string{flagConfig, flagTimeout} {
		if err := v.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	rootCmd.AddCommand(
		newPopulateCmd(v),
		newUpdateCmd(v),
		newRefreshCmd(v),
		newMigrateCmd(v),
		newServeCmd(v),
		newScheduleCmd(v),
		newVersionCmd(),
	)

	return rootCmd
}

// settings are the values shared by every command, resolved from flags and
// PLUGIN_INDEX_* environment variables
type settings struct {
	configPath string
	timeout    time.Duration
}

func readSettings(v *viper.Viper) (settings, error) {
	s := settings{
		configPath: v.GetString(flagConfig),
		timeout:    v.GetDuration(flagTimeout),
	}
	if s.configPath == "" {
		return s, fmt.Errorf("--%s (or %s_CONFIG) is required", flagConfig, config.EnvPrefix)
	}
	if s.timeout < 0 {
		return s, fmt.Errorf("--%s must not be negative", flagTimeout)
	}
	return s, nil
}

func loadConfig(s settings) (*config.Config, error) {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration", "path", s.configPath)
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.Get()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "plugin-index %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}
