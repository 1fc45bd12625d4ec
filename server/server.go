// Package server exposes the HTTP health surface: the JSON health report,
// liveness and readiness probes, and Prometheus metrics. It injects
// correlation IDs into request contexts for consistent logging.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/livewatch/backend/store"
	"github.com/onnwee/livewatch/backend/telemetry"
)

// Options tunes the HTTP surface.
type Options struct {
	// HealthRateLimit caps /health requests per client IP per HealthRateWindow.
	// Zero disables limiting.
	HealthRateLimit  int
	HealthRateWindow time.Duration
}

// NewMux returns the HTTP handler with all routes.
// The provided context bounds the rate limiter's cleanup goroutine.
func NewMux(ctx context.Context, st store.Store, bot BotStatus, opts Options) http.Handler {
	handlers := NewHandlers(st, bot)
	limiter := newIPRateLimiter(ctx, newRateLimiterConfig(opts.HealthRateLimit, opts.HealthRateWindow))
	health := rateLimitMiddleware(http.HandlerFunc(handlers.HandleHealth), limiter)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)
	mux.Handle("/health", health)
	// "/" matches every unregistered path; HandleHealth 404s all but the root.
	mux.Handle("/", health)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse corr header if provided else generate
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.NewString()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, r.Method+" "+r.URL.Path,
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.URL.Path),
		)
		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		mux.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rec.statusCode))
		var err error
		if rec.statusCode >= 500 {
			err = fmt.Errorf("HTTP %d", rec.statusCode)
		}
		telemetry.EndSpan(span, err)
	})
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, addr string, st store.Store, bot BotStatus, opts Options) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(ctx, st, bot, opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("health server listening", slog.String("addr", addr), slog.String("component", "http"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
