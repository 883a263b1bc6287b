package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/api/middleware"
)

func TestLimiterBurst(t *testing.T) {
	l := middleware.NewLimiter(5, time.Second, 5)

	for i := 0; i < 5; i++ {
		if !l.Allow("client") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("client") {
		t.Error("request past burst should be denied")
	}
}

func TestLimiterRefill(t *testing.T) {
	l := middleware.NewLimiter(10, 100*time.Millisecond, 2)

	l.Allow("client")
	l.Allow("client")
	if l.Allow("client") {
		t.Error("should be denied after burst exhausted")
	}

	time.Sleep(50 * time.Millisecond)

	// Continuous refill: half the window earns back tokens already.
	if !l.Allow("client") {
		t.Error("should be allowed after partial refill")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := middleware.NewLimiter(2, time.Second, 2)

	l.Allow("first")
	l.Allow("first")
	if l.Allow("first") {
		t.Error("first client should be denied")
	}
	if !l.Allow("second") {
		t.Error("second client should be unaffected")
	}
}

func TestLimiterRemaining(t *testing.T) {
	l := middleware.NewLimiter(5, time.Second, 5)

	if got := l.Remaining("client"); got != 5 {
		t.Errorf("Remaining = %d, want 5", got)
	}
	l.Allow("client")
	if got := l.Remaining("client"); got != 4 {
		t.Errorf("Remaining = %d, want 4", got)
	}
}

func TestThrottleRunsBucketIsSeparate(t *testing.T) {
	cfg := middleware.LimitConfig{
		PerMinute:    100,
		RunPerMinute: 1,
		AIPerMinute:  100,
		Burst:        1,
	}
	handler := middleware.Throttle(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := post("/api/runs"); got != http.StatusOK {
		t.Fatalf("first run status = %d", got)
	}
	if got := post("/api/runs"); got != http.StatusTooManyRequests {
		t.Errorf("second run status = %d, want 429", got)
	}
	// The general bucket is untouched.
	if got := post("/api/progress"); got != http.StatusOK {
		t.Errorf("progress status = %d, want 200", got)
	}
}

func TestThrottleForwardedFor(t *testing.T) {
	cfg := middleware.LimitConfig{PerMinute: 1, RunPerMinute: 1, AIPerMinute: 1, Burst: 1}
	handler := middleware.Throttle(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	get := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
		req.RemoteAddr = "127.0.0.1:9000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	get("198.51.100.7, 10.0.0.1")
	if got := get("198.51.100.7"); got != http.StatusTooManyRequests {
		t.Errorf("same forwarded client status = %d, want 429", got)
	}
	if got := get("198.51.100.8"); got != http.StatusOK {
		t.Errorf("other forwarded client status = %d, want 200", got)
	}
}
