package database

import (
	"database/sql"
	"testing"

	"github.com/username/gescom/backend/src/logger"
)

// NewTestDB opens a private in-memory SQLite database and applies the
// repository migrations from migrationsURL (e.g. "file://../../db/migrations").
// The database is closed when the test finishes.
func NewTestDB(tb testing.TB, migrationsURL string) *sql.DB {
	tb.Helper()

	if logger.L == nil {
		logger.InitLogger("error")
	}

	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(on)")
	if err != nil {
		tb.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := MigrateUp(db, migrationsURL); err != nil {
		tb.Fatalf("failed to migrate test database: %v", err)
	}

	tb.Cleanup(func() { db.Close() })
	return db
}
