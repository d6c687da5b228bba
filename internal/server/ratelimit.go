package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter hands out one token bucket per client IP. Instead of a
// background goroutine, idle entries are swept lazily whenever enough
// time has passed since the last sweep.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientEntry
	rps       rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
}

type clientEntry struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(rps float64, burst int, idleAfter time.Duration) *clientLimiter {
	return &clientLimiter{
		clients:   make(map[string]*clientEntry),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleAfter: idleAfter,
		lastSweep: time.Now(),
	}
}

func (l *clientLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > l.idleAfter {
		for addr, e := range l.clients {
			if now.Sub(e.lastSeen) > l.idleAfter {
				delete(l.clients, addr)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.clients[ip]
	if !ok {
		e = &clientEntry{bucket: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = e
	}
	e.lastSeen = now

	return e.bucket.Allow()
}

// RateLimitMiddleware throttles requests per client IP. Health and
// metrics stay exempt so probes are never throttled away.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := newClientLimiter(rps, burst, 3*time.Minute)

	return func(c *gin.Context) {
		switch c.FullPath() {
		case "/health", "/metrics":
			c.Next()
			return
		}

		if !limiter.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
