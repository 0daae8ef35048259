package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"refto/internal/session"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("test-ip") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("test-ip") {
		t.Error("4th request should be rate-limited")
	}
	if !rl.allow("other-ip") {
		t.Error("different IP should be allowed")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	defer rl.Stop()

	rl.allow("test-ip")
	if rl.allow("test-ip") {
		t.Error("should be rate-limited")
	}

	time.Sleep(80 * time.Millisecond)
	if !rl.allow("test-ip") {
		t.Error("should be allowed after window expires")
	}

	rl.cleanup()
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if len(rl.clients) != 1 {
		t.Errorf("cleanup must keep the active client, got %d entries", len(rl.clients))
	}
}

func TestRateLimiterMiddlewareJSON(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("request %d: got %d, want %d", i+1, rr.Code, want)
		}
		if want == http.StatusTooManyRequests {
			if rr.Header().Get("Retry-After") != "60" {
				t.Errorf("Retry-After: got %q", rr.Header().Get("Retry-After"))
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Error("429 must be JSON")
			}
		}
	}
}

// countingAllower allows the first n hits per key.
type countingAllower struct {
	n    int
	hits map[string]int
}

func (a *countingAllower) Allow(_ context.Context, key string) bool {
	a.hits[key]++
	return a.hits[key] <= a.n
}

func TestLimitByUserKeys(t *testing.T) {
	a := &countingAllower{n: 1, hits: map[string]int{}}
	handler := LimitByUser(a, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	userID := uuid.New()
	authed := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/versions/x/like", nil)
		req.RemoteAddr = "10.0.0.1:1"
		return req.WithContext(ctxWithSession(req.Context(), &session.Data{UserID: userID}))
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authed())
	if rr.Code != http.StatusOK {
		t.Fatalf("first hit: %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, authed())
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second hit: %d", rr.Code)
	}

	if a.hits["user:"+userID.String()] != 2 {
		t.Errorf("session requests must be keyed by user: %v", a.hits)
	}

	// Same IP without a session has its own budget.
	req := httptest.NewRequest(http.MethodPost, "/api/versions/x/like", nil)
	req.RemoteAddr = "10.0.0.1:1"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("anonymous hit: %d", rr.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"x-forwarded-for single", "10.0.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"x-forwarded-for multiple", "10.0.0.1, 172.16.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"x-real-ip", "", "10.0.0.2", "192.168.1.1:1234", "10.0.0.2"},
		{"remote addr only", "", "", "192.168.1.1:1234", "192.168.1.1"},
		{"remote addr no port", "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
