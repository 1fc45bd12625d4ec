package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func openSQLiteForTest(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Connect(context.Background(), DialectSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestMigrateSQLite(t *testing.T) {
	conn := openSQLiteForTest(t)

	if err := Migrate(conn, DialectSQLite); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for _, table := range []string{"guilds", "streamers"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing after migration: %v", table, err)
		}
	}

	version, dirty, err := MigrationVersion(conn, DialectSQLite)
	if err != nil {
		t.Fatalf("MigrationVersion() error = %v", err)
	}
	if dirty {
		t.Errorf("migration version is dirty")
	}
	if version < 1 {
		t.Errorf("migration version = %d, want >= 1", version)
	}
}

func TestMigrateSQLiteIdempotent(t *testing.T) {
	conn := openSQLiteForTest(t)

	if err := Migrate(conn, DialectSQLite); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	v1, _, err := MigrationVersion(conn, DialectSQLite)
	if err != nil {
		t.Fatalf("MigrationVersion() error = %v", err)
	}
	if err := Migrate(conn, DialectSQLite); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	v2, _, err := MigrationVersion(conn, DialectSQLite)
	if err != nil {
		t.Fatalf("MigrationVersion() error = %v", err)
	}
	if v1 != v2 {
		t.Errorf("version changed: %d -> %d (should be stable)", v1, v2)
	}
}

func TestStreamerUniqueConstraint(t *testing.T) {
	conn := openSQLiteForTest(t)
	if err := Migrate(conn, DialectSQLite); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if _, err := conn.Exec(`INSERT INTO guilds (guild_id) VALUES ('g1')`); err != nil {
		t.Fatalf("insert guild: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO streamers (guild_id, username) VALUES ('g1', 'ninja')`); err != nil {
		t.Fatalf("insert streamer: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO streamers (guild_id, username) VALUES ('g1', 'ninja')`); err == nil {
		t.Fatal("expected unique constraint violation on duplicate (guild_id, username)")
	}
}

func TestConnectUnknownDialect(t *testing.T) {
	if _, err := Connect(context.Background(), "oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}

func TestMigratePostgres(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set; skipping postgres migration test")
	}
	conn, err := Connect(context.Background(), DialectPostgres, dsn)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer conn.Close()

	if err := Migrate(conn, DialectPostgres); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"guilds", "streamers"} {
		var exists bool
		err := conn.QueryRow(`SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s does not exist after migration", table)
		}
	}
}
