package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracingDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing("livewatch", "test", "", 1)
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected non-nil shutdown func")
	}
	shutdown()
	if IsTracingEnabled() {
		t.Error("tracing should stay disabled without an endpoint")
	}
}

func TestStartSpanAndEndSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx := WithCorrelation(context.Background(), "corr-1")
	_, ok := StartSpan(ctx, "ok-span")
	EndSpan(ok, nil)
	_, bad := StartSpan(ctx, "bad-span")
	EndSpan(bad, errors.New("boom"))

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("ok-span status = %v", spans[0].Status().Code)
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("bad-span status = %v", spans[1].Status().Code)
	}
	found := false
	for _, a := range spans[0].Attributes() {
		if string(a.Key) == "correlation_id" && a.Value.AsString() == "corr-1" {
			found = true
		}
	}
	if !found {
		t.Error("span missing correlation_id attribute")
	}
}
