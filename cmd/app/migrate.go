// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/database"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

const migrationsSrcDir = "internal/database/migrations"

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database migrations",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: withDB(database.Migrate),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: withDB(database.Rollback),
			},
			{
				Name:   "status",
				Usage:  "Show the state of every migration",
				Action: withDB(database.Status),
			},
			{
				Name:  "reset",
				Usage: "Roll back all migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Confirm dropping all tables"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if !cmd.Bool("force") {
						return errors.New("reset drops all data, pass --force to continue")
					}
					return withDB(database.Reset)(ctx, cmd)
				},
			},
			{
				Name:      "create",
				Usage:     "Create a new SQL migration",
				ArgsUsage: "<name>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					cfg := config.NewFromCLI(cmd)
					driver, _ := cfg.Database.DriverAndDSN()
					return database.Create(driver, migrationsSrcDir, cmd.Args().First())
				},
			},
		},
	}
}

// withDB connects to the configured database for a migration action.
// The connection does not migrate, so status and down see the real schema.
func withDB(fn func(db *sqlx.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		driver, dsn := cfg.Database.DriverAndDSN()

		db, err := database.Connect(driver, dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("failed to close database", "error", closeErr)
			}
		}()

		if err := fn(db); err != nil {
			return err
		}

		version, err := database.Version(db)
		if err != nil {
			return err
		}
		slog.Info("migrations done", "command", cmd.Name, "version", version)
		return nil
	}
}
