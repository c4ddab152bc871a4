package server

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/askdoc/askdoc-go/internal/logging"
)

// Per-IP token-bucket defaults for the query endpoints. A query call fans out
// into embedding and chat requests, so the sustained rate stays low; the
// burst absorbs a short spike without immediate rejection.
const (
	defaultRateLimit = 10
	defaultRateBurst = 20
)

// Eviction tuning for the per-IP limiter map.
const (
	// evictInterval is how often stale client entries are swept.
	evictInterval = time.Minute
	// staleAfter is how long a client may be idle before its bucket is dropped.
	staleAfter = 5 * time.Minute
)

// visitor pairs a client's token bucket with the time it was last seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces a per-IP token-bucket rate limit on the API endpoints.
// Idle clients are evicted on a timer so the map stays bounded.
type rateLimiter struct {
	// mu protects visitors.
	mu       sync.Mutex
	visitors map[string]*visitor

	// rps and burst are the token-bucket parameters applied to every client.
	rps   rate.Limit
	burst int

	log *slog.Logger
}

// newRateLimiter constructs a rateLimiter and starts its background eviction
// goroutine, which exits when the returned stop function is called.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		log:      log,
	}

	stopCh := make(chan struct{})
	go rl.evictLoop(stopCh)

	return rl, func() { close(stopCh) }
}

// allow reports whether a request from ip may proceed, creating the client's
// bucket on first sight and refreshing its last-seen time.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// evictLoop sweeps stale clients every evictInterval until stopCh closes.
func (rl *rateLimiter) evictLoop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

// evict drops clients not seen within staleAfter.
func (rl *rateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// middleware returns an http.Handler that applies the rate limit before
// delegating to next. Rejected requests get 429 Too Many Requests with a
// Retry-After header and a WARN log entry.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the remote IP from the request, stripping the port.
// X-Forwarded-For is deliberately ignored: the server binds to localhost and
// a spoofable header must not grant a fresh token bucket.
func clientIP(r *http.Request) string {
	// RemoteAddr is "host:port" for TCP connections.
	if i := strings.LastIndexByte(r.RemoteAddr, ':'); i >= 0 {
		return r.RemoteAddr[:i]
	}
	return r.RemoteAddr
}
