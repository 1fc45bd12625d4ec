// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	SchedulerTicks        prometheus.Counter
	SchedulerTicksSkipped prometheus.Counter
	GuildErrors           prometheus.Counter
	PlatformQueryFailures prometheus.Counter
	NotificationsSent     prometheus.Counter
	NotificationsFailed   prometheus.Counter
	CommandsTotal         *prometheus.CounterVec

	// Histograms (seconds)
	TickDuration     prometheus.Observer
	PlatformDuration prometheus.Observer

	// Gauges
	LiveStreamersGauge    prometheus.Gauge
	WatchedStreamersGauge prometheus.Gauge
	GuildsGauge           prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SchedulerTicks = promauto.NewCounter(prometheus.CounterOpts{Name: "livewatch_scheduler_ticks_total", Help: "Number of reconciliation ticks run"})
		SchedulerTicksSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "livewatch_scheduler_ticks_skipped_total", Help: "Ticks skipped because the previous tick was still running"})
		GuildErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "livewatch_guild_errors_total", Help: "Per-guild reconciliation failures (errors and recovered panics)"})
		PlatformQueryFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "livewatch_platform_query_failures_total", Help: "Failed live-stream queries to Twitch"})
		NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "livewatch_notifications_sent_total", Help: "Go-live notifications delivered"})
		NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "livewatch_notifications_failed_total", Help: "Go-live notifications that could not be delivered"})
		CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "livewatch_commands_total", Help: "Chat commands handled"}, []string{"command", "outcome"})
		TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "livewatch_tick_duration_seconds",
			Help:    "Reconciliation tick duration seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		})
		PlatformDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "livewatch_platform_query_duration_seconds",
			Help:    "Twitch live-stream query duration seconds",
			Buckets: prometheus.DefBuckets,
		})
		LiveStreamersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "livewatch_live_streamers", Help: "Watched (guild, streamer) pairs currently flagged live"})
		WatchedStreamersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "livewatch_watched_streamers", Help: "Total watched (guild, streamer) pairs"})
		GuildsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "livewatch_guilds", Help: "Registered guilds"})
	})
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

func IncTicks()                 { inc(SchedulerTicks) }
func IncSkippedTicks()          { inc(SchedulerTicksSkipped) }
func IncGuildErrors()           { inc(GuildErrors) }
func IncPlatformQueryFailures() { inc(PlatformQueryFailures) }

// RecordNotification counts a delivered or failed notification.
func RecordNotification(ok bool) {
	if ok {
		inc(NotificationsSent)
		return
	}
	inc(NotificationsFailed)
}

// RecordCommand counts a handled chat command by outcome (ok, denied, invalid, error).
func RecordCommand(command, outcome string) {
	if CommandsTotal != nil {
		CommandsTotal.WithLabelValues(command, outcome).Inc()
	}
}

// SetStoreGauges publishes storage aggregate counts.
func SetStoreGauges(guilds, watched, live int) {
	if GuildsGauge != nil {
		GuildsGauge.Set(float64(guilds))
	}
	if WatchedStreamersGauge != nil {
		WatchedStreamersGauge.Set(float64(watched))
	}
	if LiveStreamersGauge != nil {
		LiveStreamersGauge.Set(float64(live))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context carrying the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
