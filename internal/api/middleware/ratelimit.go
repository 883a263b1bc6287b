package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter is a token-bucket limiter keyed by client address. Tokens
// refill continuously, so a client that waits half the window earns
// half its quota back instead of nothing.
type Limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perSecond float64
	burst     float64
}

type visitor struct {
	tokens float64
	seen   time.Time
}

// NewLimiter allows rate requests per window, with capacity for
// bursts of up to burst requests.
func NewLimiter(rate int, window time.Duration, burst int) *Limiter {
	l := &Limiter{
		visitors:  make(map[string]*visitor),
		perSecond: float64(rate) / window.Seconds(),
		burst:     float64(burst),
	}
	go l.reap()
	return l
}

// Allow consumes a token for key, reporting whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[key]
	if !ok {
		l.visitors[key] = &visitor{tokens: l.burst - 1, seen: now}
		return true
	}

	v.tokens = min(v.tokens+now.Sub(v.seen).Seconds()*l.perSecond, l.burst)
	v.seen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

// Remaining reports how many whole tokens key has left.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.visitors[key]; ok {
		return int(v.tokens)
	}
	return int(l.burst)
}

// reap drops buckets for clients that have gone quiet.
func (l *Limiter) reap() {
	const idle = 10 * time.Minute

	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-idle)
		for key, v := range l.visitors {
			if v.seen.Before(cutoff) {
				delete(l.visitors, key)
			}
		}
		l.mu.Unlock()
	}
}

// LimitConfig sets per-minute quotas for the three traffic tiers:
// general API reads, docker-backed code runs, and AI turns.
type LimitConfig struct {
	PerMinute    int
	RunPerMinute int
	AIPerMinute  int
	// Burst multiplies each quota into the bucket capacity.
	Burst int
}

// DefaultLimitConfig returns the quotas used outside debug mode.
func DefaultLimitConfig() LimitConfig {
	return LimitConfig{
		PerMinute:    120,
		RunPerMinute: 10,
		AIPerMinute:  20,
		Burst:        3,
	}
}

// Throttle rate-limits requests per client address. Code runs and AI
// endpoints get their own, tighter buckets so a stuck loop in the
// editor cannot starve course browsing.
func Throttle(cfg LimitConfig) func(http.Handler) http.Handler {
	general := NewLimiter(cfg.PerMinute, time.Minute, cfg.PerMinute*cfg.Burst)
	runs := NewLimiter(cfg.RunPerMinute, time.Minute, cfg.RunPerMinute*cfg.Burst)
	ai := NewLimiter(cfg.AIPerMinute, time.Minute, cfg.AIPerMinute*cfg.Burst)

	pick := func(r *http.Request) *Limiter {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/runs":
			return runs
		case strings.HasPrefix(r.URL.Path, "/api/instructor/"),
			r.URL.Path == "/api/modal-chat":
			return ai
		default:
			return general
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			limiter := pick(r)

			if !limiter.Allow(key) {
				slog.Warn("rate limit exceeded",
					"client", key,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"too many requests, please try again later"}}`))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller, preferring proxy headers over the
// socket address.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
