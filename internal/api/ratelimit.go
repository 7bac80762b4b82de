package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig tunes the per-IP request throttle.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// CleanupInterval is how often idle per-IP buckets are dropped. An IP
	// is idle after two intervals without a request.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig suits a small public archive API. Servers built
// from AppConfig derive their own limits from RequestsPerMin.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	CleanupInterval:   5 * time.Minute,
}

// ipBucket is one IP's token bucket. lastSeen is unix nanos, written on
// every request and read by the cleanup pass, so it must be atomic.
type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// IPRateLimiter throttles HTTP requests per client IP. Buckets live in a
// sync.Map keyed by IP; a background pass drops idle ones so scanners and
// one-shot clients cannot grow the map without bound.
type IPRateLimiter struct {
	buckets  sync.Map // map[string]*ipBucket
	config   RateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

// NewIPRateLimiter builds a limiter and starts its cleanup goroutine.
// Callers that construct one per test should Stop it.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	rl := &IPRateLimiter{
		config:   cfg,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop terminates the cleanup goroutine. Idempotent.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

func (rl *IPRateLimiter) bucket(ip string) *ipBucket {
	now := time.Now().UnixNano()

	if v, ok := rl.buckets.Load(ip); ok {
		b := v.(*ipBucket)
		b.lastSeen.Store(now)
		return b
	}

	b := &ipBucket{
		limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
	}
	b.lastSeen.Store(now)
	// Two goroutines may race to create the same bucket; the loser's
	// limiter is garbage and the stored one wins.
	actual, _ := rl.buckets.LoadOrStore(ip, b)
	return actual.(*ipBucket)
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.dropIdle()
		}
	}
}

func (rl *IPRateLimiter) dropIdle() {
	cutoff := time.Now().Add(-2 * rl.config.CleanupInterval).UnixNano()

	rl.buckets.Range(func(key, value interface{}) bool {
		if value.(*ipBucket).lastSeen.Load() < cutoff {
			rl.buckets.Delete(key)
		}
		return true
	})
}

// Allow reports whether a request from ip fits its token bucket right now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	if rl.bucket(ip).limiter.Allow() {
		rl.allowed.Add(1)
		return true
	}
	rl.rejected.Add(1)
	return false
}

// Middleware rejects over-limit requests with 429 before they reach any
// handler.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStats returns the allowed/rejected request counters.
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  rl.allowed.Load(),
		"rejected": rl.rejected.Load(),
	}
}

// GetClientIP resolves the client address for rate limiting: first hop of
// X-Forwarded-For, then X-Real-IP, then the socket peer. The headers are
// client-controlled unless a trusted proxy sets them, which is acceptable
// here: they can only move a client into a different bucket.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// WebSocketRateLimiter caps concurrent feed connections per IP. Unlike the
// request limiter this counts live connections, not a rate: slots are taken
// by Allow and returned by Release when the connection ends.
type WebSocketRateLimiter struct {
	counts   sync.Map // map[string]*int32
	maxPerIP int

	rejected atomic.Uint64
}

func NewWebSocketRateLimiter(maxPerIP int) *WebSocketRateLimiter {
	return &WebSocketRateLimiter{maxPerIP: maxPerIP}
}

// Allow claims a connection slot for ip. The check-and-increment must be a
// CAS loop: two simultaneous dials at the cap may each see one slot free.
func (wrl *WebSocketRateLimiter) Allow(ip string) bool {
	v, _ := wrl.counts.LoadOrStore(ip, new(int32))
	counter := v.(*int32)

	for {
		current := atomic.LoadInt32(counter)
		if int(current) >= wrl.maxPerIP {
			wrl.rejected.Add(1)
			return false
		}
		if atomic.CompareAndSwapInt32(counter, current, current+1) {
			return true
		}
	}
}

// Release returns ip's slot. Callers pair every successful Allow with
// exactly one Release, including on failed upgrades.
func (wrl *WebSocketRateLimiter) Release(ip string) {
	if v, ok := wrl.counts.Load(ip); ok {
		atomic.AddInt32(v.(*int32), -1)
	}
}

// GetConnectionCount returns ip's live connection count.
func (wrl *WebSocketRateLimiter) GetConnectionCount(ip string) int {
	if v, ok := wrl.counts.Load(ip); ok {
		return int(atomic.LoadInt32(v.(*int32)))
	}
	return 0
}

// GetStats returns the rejected connection counter.
func (wrl *WebSocketRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"rejected": wrl.rejected.Load(),
	}
}

// IsAllowedOrigin decides whether an Origin may open a feed connection.
// Non-browser clients send no Origin and are allowed; browsers get
// localhost on any port plus whatever the deployment lists.
func IsAllowedOrigin(origin string, extra []string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
		return true
	}
	for _, allowed := range extra {
		if origin == allowed {
			return true
		}
	}
	return false
}
