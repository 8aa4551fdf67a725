package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.5:1234", "", "203.0.113.5"},
		{"untrusted forwarder ignored", "203.0.113.5:1234", "198.51.100.1", "203.0.113.5"},
		{"loopback proxy", "127.0.0.1:5555", "198.51.100.1, 10.0.0.1", "198.51.100.1"},
		{"garbage header", "127.0.0.1:5555", "nope", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	m := &securityMetrics{}
	if detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/expenses?month=2025-01", nil), m) {
		t.Fatalf("normal request flagged")
	}
	if !detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/.env", nil), m) {
		t.Fatalf("scanner path not flagged")
	}
	if m.suspiciousRequests != 1 {
		t.Fatalf("counter = %d", m.suspiciousRequests)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.stop()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("a", nil) {
		t.Fatalf("first request denied")
	}
	if rl.allow("a", nil) {
		t.Fatalf("second request allowed with burst 1")
	}
	now = now.Add(2 * time.Minute)
	if !rl.allow("a", nil) {
		t.Fatalf("bucket did not refill")
	}

	now = now.Add(11 * time.Minute)
	if n := rl.cleanupStaleEntries(); n != 1 {
		t.Fatalf("removed %d entries, want 1", n)
	}
}
