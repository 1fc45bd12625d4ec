package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsInitialized(t *testing.T) {
	Init()
	Init() // idempotent

	if TickDuration == nil || PlatformDuration == nil {
		t.Error("histograms not initialized")
	}
	if SchedulerTicks == nil || SchedulerTicksSkipped == nil || NotificationsSent == nil || NotificationsFailed == nil {
		t.Error("counters not initialized")
	}
	if LiveStreamersGauge == nil || WatchedStreamersGauge == nil || GuildsGauge == nil {
		t.Error("gauges not initialized")
	}
}

func TestCounterHelpers(t *testing.T) {
	Init()

	before := testutil.ToFloat64(SchedulerTicksSkipped)
	IncSkippedTicks()
	IncSkippedTicks()
	if got := testutil.ToFloat64(SchedulerTicksSkipped) - before; got != 2 {
		t.Errorf("skipped ticks delta = %v, want 2", got)
	}

	sent := testutil.ToFloat64(NotificationsSent)
	failed := testutil.ToFloat64(NotificationsFailed)
	RecordNotification(true)
	RecordNotification(false)
	RecordNotification(false)
	if got := testutil.ToFloat64(NotificationsSent) - sent; got != 1 {
		t.Errorf("sent delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(NotificationsFailed) - failed; got != 2 {
		t.Errorf("failed delta = %v, want 2", got)
	}

	RecordCommand("ping", "ok")
	if got := testutil.ToFloat64(CommandsTotal.WithLabelValues("ping", "ok")); got < 1 {
		t.Errorf("commands{ping,ok} = %v, want >= 1", got)
	}
}

func TestSetStoreGauges(t *testing.T) {
	Init()

	SetStoreGauges(3, 10, 4)
	if got := testutil.ToFloat64(GuildsGauge); got != 3 {
		t.Errorf("guilds gauge = %v", got)
	}
	if got := testutil.ToFloat64(WatchedStreamersGauge); got != 10 {
		t.Errorf("watched gauge = %v", got)
	}
	if got := testutil.ToFloat64(LiveStreamersGauge); got != 4 {
		t.Errorf("live gauge = %v", got)
	}
}

func TestTimeFuncRecordsObservation(t *testing.T) {
	testHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration",
		Buckets: prometheus.DefBuckets,
	})
	prometheus.MustRegister(testHistogram)
	defer prometheus.Unregister(testHistogram)

	executed := false
	duration := TimeFunc(testHistogram, func() {
		time.Sleep(10 * time.Millisecond)
		executed = true
	})

	if !executed {
		t.Error("TimeFunc did not execute provided function")
	}
	if duration < 10*time.Millisecond {
		t.Errorf("TimeFunc duration = %v, want >= 10ms", duration)
	}

	metric := &dto.Metric{}
	if err := testHistogram.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram == nil || metric.Histogram.GetSampleCount() == 0 {
		t.Error("TimeFunc did not record observation in histogram")
	}
}

func TestTimeFuncNilObserver(t *testing.T) {
	if d := TimeFunc(nil, func() {}); d < 0 {
		t.Errorf("negative duration %v", d)
	}
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation on bare context = %q", got)
	}
	ctx = WithCorrelation(ctx, "tick-123")
	if got := GetCorrelation(ctx); got != "tick-123" {
		t.Errorf("GetCorrelation = %q, want tick-123", got)
	}

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	LoggerWithCorr(ctx).Info("hello")
	if !strings.Contains(buf.String(), "corr=tick-123") {
		t.Errorf("log output %q missing corr attribute", buf.String())
	}
}
