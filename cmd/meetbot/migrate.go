// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package main

import (
	"fmt"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/meetbot/meetbot/internal/config"
	"github.com/meetbot/meetbot/internal/store"
)

// Migrator wraps the store.Migrator methods used by the migrate commands.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// migrateDeps contains injectable dependencies for the migrate commands.
type migrateDeps struct {
	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// DatabaseURLGetter resolves the database URL.
	// Default: config.Load with the resolved config file and environment
	DatabaseURLGetter func() (string, error)
}

func (d *migrateDeps) withDefaults() *migrateDeps {
	out := migrateDeps{}
	if d != nil {
		out = *d
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if out.DatabaseURLGetter == nil {
		out.DatabaseURLGetter = func() (string, error) {
			file, err := resolveConfigFile()
			if err != nil {
				return "", err
			}
			cfg, err := config.Load(config.LoadOptions{File: file})
			if err != nil {
				return "", err //nolint:wrapcheck // already coded by config
			}
			return cfg.Database.URL, nil
		}
	}
	return &out
}

// NewMigrateCmd creates the migrate command and its subcommands.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(nil)
}

func newMigrateCmd(deps *migrateDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply, roll back or inspect the embedded schema migrations against
the PostgreSQL database named by DATABASE_URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(deps, func(m Migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "migrate up").Wrap(err)
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(deps, func(m Migrator) error {
				if err := m.Down(); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "migrate down").Wrap(err)
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(deps, func(m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
				}
				if v == 0 {
					cmd.Println("No migrations applied")
					return nil
				}
				line := fmt.Sprintf("Version: %d (%s)", v, migrationLabel(v))
				if dirty {
					line += " (dirty)"
				}
				cmd.Println(line)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(deps, func(m Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "list pending").Wrap(err)
				}
				if len(pending) == 0 {
					cmd.Println("Schema is up to date")
					return nil
				}
				cmd.Printf("%d pending migration(s):\n", len(pending))
				for _, v := range pending {
					cmd.Println("  " + migrationLabel(v))
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag. Use after
repairing a migration that failed halfway.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < -1 {
				return oops.Code("INVALID_ARGUMENT").With("version", args[0]).Errorf("version must be an integer >= -1")
			}
			return withMigrator(deps, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "force version").Wrap(err)
				}
				cmd.Printf("Schema version forced to %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(deps *migrateDeps, fn func(Migrator) error) error {
	d := deps.withDefaults()

	url, err := d.DatabaseURLGetter()
	if err != nil {
		return err
	}
	if url == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	m, err := d.MigratorFactory(url)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	runErr := fn(m)
	if closeErr := m.Close(); closeErr != nil && runErr == nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "close migrator").Wrap(closeErr)
	}
	return runErr
}

// migrationLabel names an embedded migration, falling back to its number.
func migrationLabel(v uint) string {
	if name, err := store.MigrationName(v); err == nil && name != "" {
		return name
	}
	return fmt.Sprintf("%06d", v)
}
