package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/livewatch/backend/store"
	"github.com/onnwee/livewatch/backend/telemetry"
)

type healthResponse struct {
	Status       string  `json:"status"`
	Uptime       float64 `json:"uptime"`
	BotReady     bool    `json:"botReady"`
	GuildsServed int     `json:"guildsServed"`
	store.Stats
	Storage   string `json:"storage"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// HandleHealth reports process uptime, bot readiness and store statistics.
// Only the exact root path is served; anything else under / is a 404.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/health" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err := h.store.Ping(r.Context()); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("health check: store unreachable",
			slog.String("storage", h.store.Name()), slog.Any("err", err), slog.String("component", "http"))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "Database error",
		})
		return
	}

	now := h.now()
	resp := healthResponse{
		Status:    "healthy",
		Uptime:    now.Sub(h.started).Seconds(),
		Stats:     h.store.Stats(r.Context()),
		Storage:   h.store.Name(),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
	if h.bot != nil {
		resp.BotReady = h.bot.Ready()
		resp.GuildsServed = h.bot.GuildCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHealthz responds to liveness probe requests by checking store connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports ready once the store answers and the Discord session
// has received its Ready event.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"storage", func() error { return h.store.Ping(r.Context()) }},
		{"discord", func() error {
			if h.bot == nil || !h.bot.Ready() {
				return errors.New("discord session not ready")
			}
			return nil
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
