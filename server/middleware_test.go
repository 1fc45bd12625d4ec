package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, perIP int, window time.Duration) (*ipRateLimiter, *fakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	limiter := newIPRateLimiter(ctx, newRateLimiterConfig(perIP, window))
	clock := &fakeClock{t: time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)}
	limiter.now = clock.now
	return limiter, clock
}

func TestRateLimiter(t *testing.T) {
	limiter, clock := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if limiter.allow("192.168.1.1") {
		t.Error("request 4 should be denied (rate limit exceeded)")
	}

	clock.advance(61 * time.Second)
	if !limiter.allow("192.168.1.1") {
		t.Error("request after window expiry should be allowed")
	}
}

func TestRateLimiterDifferentIPs(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)

	for _, ip := range []string{"192.168.1.1", "192.168.1.2"} {
		for i := 0; i < 2; i++ {
			if !limiter.allow(ip) {
				t.Errorf("%s request %d should be allowed", ip, i+1)
			}
		}
	}
	if limiter.allow("192.168.1.1") || limiter.allow("192.168.1.2") {
		t.Error("both IPs should be at their limit")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter, _ := newTestLimiter(t, 0, time.Minute)
	for i := 0; i < 100; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Fatalf("request %d denied with limiting disabled", i+1)
		}
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter, clock := newTestLimiter(t, 5, time.Minute)
	limiter.allow("10.0.0.1")
	clock.advance(90 * time.Second)
	limiter.allow("10.0.0.2")
	clock.advance(60 * time.Second)

	limiter.cleanup()
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.visitors["10.0.0.1"]; ok {
		t.Error("idle visitor should be swept")
	}
	if _, ok := limiter.visitors["10.0.0.2"]; !ok {
		t.Error("recent visitor should be kept")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"ipv4 with port", "192.168.1.1:12345", "", "192.168.1.1"},
		{"ipv4 without port", "192.168.1.1", "", "192.168.1.1"},
		{"ipv6 with port", "[2001:db8::1]:8080", "", "2001:db8::1"},
		{"ipv6 without port", "2001:db8::1", "", "2001:db8::1"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"forwarded single", "10.0.0.1:80", " 203.0.113.8 ", "203.0.113.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, 30*time.Second)
	handler := rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), limiter)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want 30", got)
	}
}
