package database

import (
	"database/sql"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/username/gescom/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", databasePath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	// Limit open connections to 1 for SQLite to avoid locking issues
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		stdlog.Fatalf("failed to ping database: %v", err)
	}
	DB = db
	logger.L.Info("Database connection established with WAL mode, busy_timeout, and foreign_keys enabled.")
}

func RunMigrations(databasePath string) {
	if DB == nil {
		logger.L.Error("Database connection is not initialized before running migrations")
		return
	}

	if err := MigrateUp(DB, defaultMigrationsURL()); err != nil {
		logger.L.Error("Failed to apply migrations", "error", err)
		stdlog.Fatalf("failed to apply migrations: %v", err)
	}
}

// MigrateUp applies all pending migrations from sourceURL to db.
// migrate.ErrNoChange is treated as success.
func MigrateUp(db *sql.DB, sourceURL string) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "gescom", driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed (source %s): %w", sourceURL, err)
	}

	logger.L.Info("Applying database migrations...", "source", sourceURL)
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.L.Info("No new database migrations to apply.")
			return nil
		}
		return err
	}
	logger.L.Info("Database migrations applied successfully.")
	return nil
}

func defaultMigrationsURL() string {
	if os.Getenv("GO_ENV") == "PRO" {
		return "file:///app/db/migrations"
	}
	cwd, err := os.Getwd()
	if err != nil {
		stdlog.Fatalf("failed to get current working directory: %v", err)
	}
	localMigrationsPath := filepath.Join(cwd, "db", "migrations")
	return fmt.Sprintf("file://%s", filepath.ToSlash(localMigrationsPath))
}
