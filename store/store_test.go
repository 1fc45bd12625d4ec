package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/onnwee/livewatch/backend/store"
	"github.com/onnwee/livewatch/backend/store/storetest"
	"github.com/onnwee/livewatch/backend/testutil"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMemory()
	})
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, testutil.SetupSQLiteStore)
}

func TestPostgresStore(t *testing.T) {
	if os.Getenv("TEST_PG_DSN") == "" {
		t.Skip("TEST_PG_DSN not set; skipping postgres store tests")
	}
	storetest.Run(t, testutil.SetupPostgresStore)
}

func TestMongoStore(t *testing.T) {
	if os.Getenv("TEST_MONGO_URI") == "" {
		t.Skip("TEST_MONGO_URI not set; skipping mongodb store tests")
	}
	storetest.Run(t, testutil.SetupMongoStore)
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := store.Open(context.Background(), store.Options{Backend: "cassandra"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOpenMongoRequiresURI(t *testing.T) {
	if _, err := store.Open(context.Background(), store.Options{Backend: store.BackendMongo}); err == nil {
		t.Fatal("expected error when MONGODB_URI is empty")
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := store.Open(context.Background(), store.Options{Backend: store.BackendMemory})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if s.Name() != store.BackendMemory {
		t.Errorf("Name() = %q", s.Name())
	}
}

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ninja", "ninja"},
		{"Ninja", "ninja"},
		{"  NINJA  ", "ninja"},
		{"@Pokimane", "pokimane"},
		{" @ shroud", "shroud"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := store.NormalizeUsername(tt.in); got != tt.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
