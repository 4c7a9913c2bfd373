package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	infraconfig "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/config"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/config"
	"github.com/spf13/cobra"
)

// defaultMigrationsPath is relative to the service root.
const defaultMigrationsPath = "file://migrations"

func newMigrateCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back schema store migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(infraconfig.GetConfigPath("config.yml"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			m, err := migrate.New(source, cfg.Database.MigrateURL())
			if err != nil {
				return fmt.Errorf("create migrate instance: %w", err)
			}
			defer func() { _, _ = m.Close() }()

			applied, err := runMigration(m, args[0])
			if err != nil {
				return fmt.Errorf("migration %s: %w", args[0], err)
			}
			if !applied {
				fmt.Fprintln(cmd.OutOrStdout(), "No migrations to apply")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", defaultMigrationsPath, "migrations source URL")
	return cmd
}

// migrator is the subset of *migrate.Migrate used here.
type migrator interface {
	Up() error
	Down() error
}

func runMigration(m migrator, direction string) (bool, error) {
	var err error
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return false, fmt.Errorf("invalid direction %q", direction)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	return err == nil, err
}
