package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onnwee/livewatch/backend/db"
)

// Options select and configure the backend built by Open.
type Options struct {
	Backend       string // one of the Backend constants; empty means postgres
	PostgresDSN   string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// Open constructs exactly one backend. Relational backends are migrated
// before they are returned.
func Open(ctx context.Context, opts Options) (Store, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendPostgres
	}
	log := slog.Default().With(slog.String("component", "store"), slog.String("backend", backend))

	switch backend {
	case BackendPostgres, BackendSQLite:
		dsn := opts.PostgresDSN
		if backend == BackendSQLite {
			dsn = opts.SQLitePath
		}
		conn, err := db.Connect(ctx, backend, dsn)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(conn, backend); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrate %s: %w", backend, err)
		}
		log.Info("storage ready")
		return NewSQL(conn, backend), nil
	case BackendMongo:
		database := opts.MongoDatabase
		if database == "" {
			database = "livewatch"
		}
		m, err := NewMongo(ctx, opts.MongoURI, database)
		if err != nil {
			return nil, err
		}
		log.Info("storage ready", slog.String("database", database))
		return m, nil
	case BackendMemory:
		log.Warn("using in-memory storage; state is lost on restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
