package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// InMemoryRateLimiter is a sliding-window counter keyed by client IP.
// The router installs one instance for all routes and a second, tighter
// one on the payment group, since those routes call out to the gateway.
type InMemoryRateLimiter struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limit  int
	window time.Duration
}

func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	l := &InMemoryRateLimiter{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go l.evictLoop()
	return l
}

// Allow records one request for key and reports whether it fits the window.
func (l *InMemoryRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	recent := prune(l.seen[key], now.Add(-l.window))
	if len(recent) >= l.limit {
		l.seen[key] = recent
		return false
	}
	l.seen[key] = append(recent, now)
	return true
}

func prune(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// evictLoop drops idle keys so one-off clients do not pin memory.
func (l *InMemoryRateLimiter) evictLoop() {
	for range time.Tick(time.Minute) {
		l.mu.Lock()
		cutoff := time.Now().Add(-l.window)
		for k, times := range l.seen {
			if recent := prune(times, cutoff); len(recent) == 0 {
				delete(l.seen, k)
			} else {
				l.seen[k] = recent
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
