package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/plugin-index/database"
	"github.com/stacklok/plugin-index/internal/config"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd, v, true)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert database migrations",
			Long: `Revert database migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  plugin-index migrate down --config config.yaml --num-steps 1 --yes`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd, v, false)
			},
		},
	)
	return cmd
}

func runMigrate(cmd *cobra.Command, v *viper.Viper, up bool) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	steps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	s, err := readSettings(v)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(s)
	if err != nil {
		return err
	}

	direction := "apply"
	if !up {
		direction = "revert"
	}
	if !yes {
		prompt := fmt.Sprintf("About to %s migrations on %s@%s:%d/%s. Continue? (yes/no): ",
			direction, cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
		if err != nil {
			return err
		}
		if !ok {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	return migrate(cfg.Database, up, steps)
}

// migrate moves the schema up or down; steps 0 means all the way
func migrate(dbCfg *config.DatabaseConfig, up bool, steps uint) error {
	connString, err := dbCfg.GetConnectionString()
	if err != nil {
		return err
	}
	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Error("Error closing migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	switch {
	case steps > 0 && up:
		err = m.Steps(int(steps))
	case steps > 0:
		err = m.Steps(-int(steps))
	case up:
		err = database.Up(m)
	default:
		err = database.Down(m)
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case err != nil:
		slog.Warn("Unable to get migration version", "error", err)
	case dirty:
		slog.Warn("Database is in a dirty state", "version", version)
	default:
		slog.Info("Migrations complete", "version", version)
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}
