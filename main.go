// Command livewatch is the main entrypoint for the Twitch go-live alert bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Opens the configured store (Postgres, SQLite, MongoDB or memory) and
//     runs idempotent migrations for the relational backends.
//   - Connects to Discord, answers prefix commands, and once the session is
//     ready starts the reconciliation scheduler that announces go-live events.
//   - Exposes a minimal HTTP server with /health, /healthz, /readyz and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM and on the owner's restart command.
package main

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/livewatch/backend/bot"
	"github.com/onnwee/livewatch/backend/config"
	"github.com/onnwee/livewatch/backend/notify"
	"github.com/onnwee/livewatch/backend/scheduler"
	"github.com/onnwee/livewatch/backend/server"
	"github.com/onnwee/livewatch/backend/store"
	"github.com/onnwee/livewatch/backend/telemetry"
	"github.com/onnwee/livewatch/backend/twitchapi"
)

const version = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		return 1
	}

	lvl, known := parseLevel(cfg.LogLevel)
	handler, logCloser := newLogHandler(os.Stdout, lvl, cfg.LogFormat, cfg.LogFile)
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(slog.New(handler))
	if !known {
		slog.Warn("unknown LOG_LEVEL, using info", slog.String("value", cfg.LogLevel))
	}
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		return 1
	}

	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing("livewatch", version, cfg.OTLPEndpoint, cfg.TraceSampleRatio)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		return 1
	}
	defer shutdownTracing()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(ctx, 30*time.Second)
	st, err := store.Open(openCtx, store.Options{
		Backend:       cfg.StorageBackend,
		PostgresDSN:   cfg.DBDsn,
		SQLitePath:    cfg.SQLitePath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	cancelOpen()
	if err != nil {
		slog.Error("failed to initialize storage", slog.String("backend", cfg.StorageBackend), slog.Any("err", err))
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			slog.Error("failed to close store", slog.Any("err", err))
		}
	}()
	slog.Info("storage ready", slog.String("backend", st.Name()))

	helix := twitchapi.NewHelixClient(cfg.TwitchClientID, cfg.TwitchClientSecret, nil)

	// The owner's restart command ends the process; a supervisor brings it back.
	restart := make(chan struct{})
	var restartOnce sync.Once
	requestRestart := func() { restartOnce.Do(func() { close(restart) }) }

	discord, err := bot.New(cfg, st, helix, requestRestart)
	if err != nil {
		slog.Error("failed to create discord session", slog.Any("err", err))
		return 1
	}
	if err := discord.Start(); err != nil {
		slog.Error("failed to log in to discord", slog.Any("err", err))
		return 1
	}
	defer func() {
		if err := discord.Stop(); err != nil {
			slog.Error("failed to close discord session", slog.Any("err", err))
		}
	}()

	if os.Getenv("ENABLE_PPROF") == "1" {
		startPprof()
	}

	go func() {
		opts := server.Options{HealthRateLimit: cfg.HealthRateLimit, HealthRateWindow: time.Minute}
		if err := server.Start(ctx, cfg.HTTPAddr, st, discord, opts); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	dispatcher := notify.NewDispatcher(discord, st, cfg.DefaultMessage, cfg.EmbedColor)
	sched := scheduler.New(st, helix, discord, dispatcher, scheduler.Config{
		Interval:    cfg.PollInterval,
		TickTimeout: cfg.TickTimeout,
		Workers:     cfg.SchedulerWorkers,
	})
	go func() {
		if err := discord.WaitReady(ctx); err != nil {
			return
		}
		sched.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case <-restart:
		slog.Info("shutting down for restart")
		stop()
	}
	sched.Stop()
	return 0
}

func startPprof() {
	pprofAddr := os.Getenv("PPROF_ADDR")
	if pprofAddr == "" {
		pprofAddr = "localhost:6060"
	}
	go func() {
		slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
		// Use an http.Server with timeouts to satisfy G114 and avoid DoS risks
		srv := &http.Server{
			Addr:              pprofAddr,
			Handler:           nil, // default mux exposes /debug/pprof
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("pprof server error", slog.Any("err", err))
		}
	}()
}
