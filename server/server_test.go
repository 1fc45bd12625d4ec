package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/livewatch/backend/store"
)

type fakeBot struct {
	ready  bool
	guilds int
}

func (b fakeBot) Ready() bool     { return b.ready }
func (b fakeBot) GuildCount() int { return b.guilds }

// downStore fails every ping.
type downStore struct{ *store.MemoryStore }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	st.AddStreamer(ctx, "g1", "ninja")
	st.AddStreamer(ctx, "g1", "pokimane")
	st.AddStreamer(ctx, "g2", "shroud")
	st.SetLive(ctx, "g1", "ninja")
	return st
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func newTestMux(t *testing.T, st store.Store, bot BotStatus) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewMux(ctx, st, bot, Options{})
}

func TestHealthReport(t *testing.T) {
	h := newTestMux(t, seededStore(t), fakeBot{ready: true, guilds: 2})

	for _, path := range []string{"/health", "/"} {
		t.Run(path, func(t *testing.T) {
			rr := serve(t, h, path)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var resp map[string]any
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			want := map[string]any{
				"status":             "healthy",
				"botReady":           true,
				"guildsServed":       float64(2),
				"totalGuilds":        float64(2),
				"totalStreamers":     float64(3),
				"totalLiveStreamers": float64(1),
				"storage":            "memory",
			}
			for k, v := range want {
				if resp[k] != v {
					t.Errorf("%s = %v, want %v", k, resp[k], v)
				}
			}
			if _, ok := resp["uptime"].(float64); !ok {
				t.Errorf("uptime missing or not a number: %v", resp["uptime"])
			}
			ts, _ := resp["timestamp"].(string)
			if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
				t.Errorf("timestamp %q not RFC3339: %v", ts, err)
			}
		})
	}
}

func TestHealthWithoutBot(t *testing.T) {
	h := newTestMux(t, store.NewMemory(), nil)
	rr := serve(t, h, "/health")
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BotReady || resp.GuildsServed != 0 || resp.TotalGuilds != 0 {
		t.Errorf("unexpected report %+v", resp)
	}
}

func TestHealthStoreDown(t *testing.T) {
	h := newTestMux(t, downStore{store.NewMemory()}, fakeBot{ready: true})
	rr := serve(t, h, "/health")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "error" || resp["message"] != "Database error" {
		t.Errorf("body = %v", resp)
	}

	if rr := serve(t, h, "/healthz"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz expected 503, got %d", rr.Code)
	}
}

func TestUnknownPathNotFound(t *testing.T) {
	h := newTestMux(t, store.NewMemory(), fakeBot{})
	rr := serve(t, h, "/vods")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "Not Found" {
		t.Errorf("body = %q", got)
	}
}

func TestHealthzOK(t *testing.T) {
	h := newTestMux(t, store.NewMemory(), fakeBot{})
	rr := serve(t, h, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Body.String(); got != "ok" {
		t.Fatalf("expected ok body, got %q", got)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		st         store.Store
		bot        BotStatus
		wantCode   int
		wantFailed string
	}{
		{"ready", store.NewMemory(), fakeBot{ready: true}, http.StatusOK, ""},
		{"bot not ready", store.NewMemory(), fakeBot{}, http.StatusServiceUnavailable, "discord"},
		{"no bot", store.NewMemory(), nil, http.StatusServiceUnavailable, "discord"},
		{"store down", downStore{store.NewMemory()}, fakeBot{ready: true}, http.StatusServiceUnavailable, "storage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, newTestMux(t, tt.st, tt.bot), "/readyz")
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var resp map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["failed_check"] != tt.wantFailed {
				t.Errorf("failed_check = %q, want %q", resp["failed_check"], tt.wantFailed)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestMux(t, store.NewMemory(), fakeBot{})
	rr := serve(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("expected default Go collector output")
	}
}

func TestCorrelationIDHeader(t *testing.T) {
	h := newTestMux(t, store.NewMemory(), fakeBot{})

	rr := serve(t, h, "/healthz")
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected generated correlation id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-ID"); got != "abc-123" {
		t.Errorf("X-Correlation-ID = %q, want echoed abc-123", got)
	}
}

func TestHealthRateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewMux(ctx, store.NewMemory(), fakeBot{}, Options{HealthRateLimit: 1, HealthRateWindow: time.Minute})

	if rr := serve(t, h, "/health"); rr.Code != http.StatusOK {
		t.Fatalf("first request: %d", rr.Code)
	}
	if rr := serve(t, h, "/health"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rr.Code)
	}
	if rr := serve(t, h, "/healthz"); rr.Code != http.StatusOK {
		t.Errorf("probes must not be limited, got %d", rr.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run server in background on random port by using :0
	done := make(chan error, 1)
	go func() { done <- Start(ctx, "127.0.0.1:0", store.NewMemory(), nil, Options{}) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
