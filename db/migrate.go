package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// newMigrate builds a migrate instance reading the embedded migrations for the
// dialect. The returned instance must not be closed: closing the database
// driver would close db as well.
func newMigrate(db *sql.DB, dialect string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations for %s: %w", dialect, err)
	}

	var driver database.Driver
	switch dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Migrate applies all pending versioned migrations. It is idempotent and safe
// to run on every start.
//
// Migration files follow the golang-migrate naming convention:
//
//	000001_description.up.sql   - applies the migration
//	000001_description.down.sql - reverts the migration
func Migrate(db *sql.DB, dialect string) error {
	m, err := newMigrate(db, dialect)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("database schema is up to date", slog.String("dialect", dialect), slog.String("component", "db_migrate"))
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		slog.Warn("could not determine migration version", slog.Any("err", err), slog.String("component", "db_migrate"))
		return nil
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d - manual intervention required", version)
	}

	slog.Info("migrations applied successfully",
		slog.Uint64("version", uint64(version)),
		slog.String("dialect", dialect),
		slog.String("component", "db_migrate"))
	return nil
}

// MigrationVersion returns the current migration version and dirty state.
// A database without any applied migration reports version 0.
func MigrationVersion(db *sql.DB, dialect string) (version uint, dirty bool, err error) {
	m, err := newMigrate(db, dialect)
	if err != nil {
		return 0, false, err
	}
	v, d, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return v, d, nil
}
