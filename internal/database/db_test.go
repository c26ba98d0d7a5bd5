// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InMemory(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")

	require.NoError(t, err)
	require.NotNil(t, db)

	require.NoError(t, db.Close())
}

func TestOpen_DefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() {
		_ = os.Chdir(oldWd)
	}()

	db, err := database.Open("", "")

	require.NoError(t, err)
	require.NotNil(t, db)
	defer func() {
		_ = db.Close()
	}()

	_, statErr := os.Stat(filepath.Join(tmpDir, "data", "slimmermetai.db"))
	assert.NoError(t, statErr)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open("postgres", "postgres://localhost")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_MySQLRequiresDSN(t *testing.T) {
	_, err := database.Open(database.DriverMySQL, "")

	require.Error(t, err)
}

func TestOpen_MigrationsApplied(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	for _, table := range []string{"users", "refresh_tokens", "email_verification_tokens", "login_attempts", "stripe_sessions", "sessions"} {
		var count int64
		err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, table)
	}
}

func TestOpen_WithExistingParams(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:?_txlock=deferred")

	require.NoError(t, err)
	require.NotNil(t, db)
	_ = db.Close()
}

func TestVersionAndRollback(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	version, err := database.Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	require.NoError(t, database.Rollback(db))

	version, err = database.Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	require.NoError(t, database.Migrate(db))
	version, err = database.Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}

func TestReset(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	require.NoError(t, database.Reset(db))

	var count int64
	require.NoError(t, db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='users'"))
	assert.Equal(t, int64(0), count)
}

func TestConnect_LeavesSchemaPending(t *testing.T) {
	db, err := database.Connect(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	version, err := database.Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	var count int64
	require.NoError(t, db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='users'"))
	assert.Equal(t, int64(0), count)

	require.NoError(t, database.Status(db))

	require.NoError(t, database.Migrate(db))
	version, err = database.Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := database.Connect("postgres", "postgres://localhost")

	require.Error(t, err)
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sqlite"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mysql"), 0o750))

	require.NoError(t, database.Create(database.DriverSQLite, dir, "add_orders"))
	require.NoError(t, database.Create(database.DriverMySQL, dir, "add_orders"))

	for _, sub := range []string{"sqlite", "mysql"} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		require.NoError(t, err)
		require.Len(t, entries, 1, sub)
		assert.Contains(t, entries[0].Name(), "add_orders")
	}

	require.Error(t, database.Create(database.DriverSQLite, dir, ""))
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, "mysql", database.DialectFor(database.DriverMySQL))
	assert.Equal(t, "sqlite3", database.DialectFor(database.DriverSQLite))
	assert.Equal(t, "sqlite3", database.DialectFor(""))
}

func TestMigrationsDir(t *testing.T) {
	assert.Equal(t, "migrations/mysql", database.MigrationsDir("mysql"))
	assert.Equal(t, "migrations/sqlite", database.MigrationsDir("sqlite3"))
}
