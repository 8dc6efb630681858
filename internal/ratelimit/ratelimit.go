package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key (usually the client IP).
// Buckets that have not been used for idle are dropped.
type Limiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// PerMinute allows n requests per minute per key, with a burst of n.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		n = 1
	}
	return &Limiter{
		limit:   rate.Limit(float64(n) / 60.0),
		burst:   n,
		idle:    3 * time.Minute,
		now:     time.Now,
		clients: make(map[string]*bucket),
	}
}

// Limit is the number of requests allowed per minute.
func (l *Limiter) Limit() int { return l.burst }

// Allow takes a token for key. When none is left it reports how long the
// caller should wait before the next request is accepted.
func (l *Limiter) Allow(key string) (ok bool, remaining int, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	b, found := l.clients[key]
	if !found {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.seen = now
	l.mu.Unlock()

	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, time.Minute
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, 0, d
	}
	return true, int(math.Max(0, math.Floor(b.lim.TokensAt(now)))), 0
}

// Len reports how many client buckets are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// sweep must be called with l.mu held.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	for k, b := range l.clients {
		if now.Sub(b.seen) >= l.idle {
			delete(l.clients, k)
		}
	}
	l.lastSweep = now
}

// ClientIP keys requests by the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware gates next with l. Rejected requests get Retry-After and are
// answered by denied, which writes the body.
func Middleware(l *Limiter, key func(*http.Request) string, denied func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, wait := l.Allow(key(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				denied(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
