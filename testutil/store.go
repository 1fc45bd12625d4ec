package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onnwee/livewatch/backend/store"
)

// SetupSQLiteStore opens a migrated SQLite store in a temp directory.
func SetupSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Options{
		Backend:    store.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "livewatch.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

// SetupPostgresStore opens a migrated, emptied Postgres store.
// It skips the test if TEST_PG_DSN environment variable is not set.
func SetupPostgresStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	s, err := store.Open(context.Background(), store.Options{Backend: store.BackendPostgres, PostgresDSN: dsn})
	if err != nil {
		t.Fatalf("open postgres store: %v", err)
	}
	if _, err := s.(*store.SQLStore).DB().Exec(`TRUNCATE streamers, guilds`); err != nil {
		_ = s.Close(context.Background())
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

// SetupMongoStore opens a store on a throwaway database that is dropped
// when the test ends. It skips the test if TEST_MONGO_URI is not set.
func SetupMongoStore(t *testing.T) store.Store {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	dbName := "livewatch_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	s, err := store.Open(ctx, store.Options{Backend: store.BackendMongo, MongoURI: uri, MongoDatabase: dbName})
	if err != nil {
		t.Fatalf("open mongodb store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close(ctx)
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return
		}
		defer func() { _ = client.Disconnect(ctx) }()
		_ = client.Database(dbName).Drop(ctx)
	})
	return s
}
