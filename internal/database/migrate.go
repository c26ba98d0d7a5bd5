// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
	"github.com/vinovest/sqlx"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var embedMigrations embed.FS

// MigrationsDir returns the embedded migrations directory for a dialect.
func MigrationsDir(dialect string) string {
	if dialect == "mysql" {
		return "migrations/mysql"
	}
	return "migrations/sqlite"
}

func prepare(db *sqlx.DB) (string, error) {
	goose.SetBaseFS(embedMigrations)

	dialect := Dialect(db)
	if err := goose.SetDialect(dialect); err != nil {
		return "", err
	}
	return MigrationsDir(dialect), nil
}

// Migrate runs all pending migrations.
func Migrate(db *sqlx.DB) error {
	dir, err := prepare(db)
	if err != nil {
		return err
	}
	return goose.Up(db.DB, dir)
}

// Rollback rolls back the last migration.
func Rollback(db *sqlx.DB) error {
	dir, err := prepare(db)
	if err != nil {
		return err
	}
	return goose.Down(db.DB, dir)
}

// Reset rolls back all migrations.
func Reset(db *sqlx.DB) error {
	dir, err := prepare(db)
	if err != nil {
		return err
	}
	return goose.Reset(db.DB, dir)
}

// Status prints the state of every migration through goose's logger.
func Status(db *sqlx.DB) error {
	dir, err := prepare(db)
	if err != nil {
		return err
	}
	return goose.Status(db.DB, dir)
}

// Version returns the current schema version.
func Version(db *sqlx.DB) (int64, error) {
	if _, err := prepare(db); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db.DB)
}

// Create writes a new timestamped SQL migration into srcDir/<dialect>.
// srcDir is a directory on disk, normally internal/database/migrations.
// No connection is needed, only the configured driver name.
func Create(driver, srcDir, name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}

	// Create writes to the real filesystem, not the embedded one.
	goose.SetBaseFS(nil)
	defer goose.SetBaseFS(embedMigrations)

	dir := path.Join(srcDir, path.Base(MigrationsDir(DialectFor(driver))))
	return goose.Create(nil, dir, name, "sql")
}
