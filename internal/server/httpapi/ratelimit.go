package httpapi

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// keyFunc derives the partition key for a rate-limit policy from the request
// (client IP for anonymous routes, user id for authenticated ones).
type keyFunc func(r *http.Request) string

func ipKey(r *http.Request) string {
	return clientIP(r)
}

func userKey(r *http.Request) string {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return id
	}
	return clientIP(r)
}

// rateLimiter keeps one token bucket per partition key for a single policy.
// Buckets are created on first use and never expire; the key space is bounded
// (IPs and user ids of active callers).
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	key     keyFunc
	enabled bool
}

// perMinute expresses an "n requests per minute" policy.
func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

// per expresses an "n requests per window" policy.
func per(n int, window time.Duration) rate.Limit {
	return rate.Every(window / time.Duration(n))
}

func newRateLimiter(limit rate.Limit, burst int, key keyFunc, enabled bool) *rateLimiter {
	return &rateLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
		key:     key,
		enabled: enabled,
	}
}

func (l *rateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// middleware rejects requests over the policy with 429.
func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	if !l.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.bucket(l.key(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
