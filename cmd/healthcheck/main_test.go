package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestProbeURL(t *testing.T) {
	tests := []struct {
		name, addr, port, want string
	}{
		{"default", "", "", "http://localhost:10000/healthz"},
		{"port", "", "8080", "http://localhost:8080/healthz"},
		{"addr wins", "127.0.0.1:9000", "8080", "http://127.0.0.1:9000/healthz"},
		{"addr port only", ":7000", "", "http://localhost:7000/healthz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HTTP_ADDR", tt.addr)
			t.Setenv("PORT", tt.port)
			if got := probeURL(); got != tt.want {
				t.Errorf("probeURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	var code atomic.Int32
	code.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(int(code.Load()))
	}))
	defer srv.Close()

	if err := probe(context.Background(), srv.Client(), srv.URL+"/healthz"); err != nil {
		t.Fatalf("healthy probe failed: %v", err)
	}
	code.Store(http.StatusServiceUnavailable)
	if err := probe(context.Background(), srv.Client(), srv.URL+"/healthz"); err == nil {
		t.Fatal("expected error for 503")
	}
}
