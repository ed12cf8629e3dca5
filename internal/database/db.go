package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumi-launcher/backend/internal/logging"
	_ "modernc.org/sqlite"
)

// ErrSchemaTooNew means the file was migrated by a newer launcher build.
var ErrSchemaTooNew = errors.New("database schema is newer than this launcher")

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB opens the launcher database, creating its directory when needed.
// The store has one writer per process, so the pool holds a single connection
// and transactions take the write lock up front.
func NewDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn, err := buildSQLiteDSN(dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

func buildSQLiteDSN(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}

	// SQLite file URIs want forward slashes
	absPath = strings.ReplaceAll(absPath, "\\", "/")

	pragmas := []string{
		"busy_timeout(5000)",
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"temp_store(MEMORY)",
	}
	query := "_txlock=immediate"
	for _, pragma := range pragmas {
		query += "&_pragma=" + pragma
	}
	return "file:" + absPath + "?" + query, nil
}

// SchemaVersion reports how many migrations the file has recorded.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Migrate applies pending migrations in one transaction. The applied count
// lives in the file header (user_version), so there is no bookkeeping table.
func (db *DB) Migrate() error {
	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("%w: file at version %d, launcher knows %d", ErrSchemaTooNew, current, len(migrations))
	}
	if current == len(migrations) {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	log := logging.Component("database")
	for _, migration := range migrations[current:] {
		if _, err := tx.Exec(migration.Up); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
		log.Info("migration_applied", "version", migration.Version)
	}

	// PRAGMA arguments cannot be bound
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}
	return nil
}
