package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/quillfeed/quillfeed/pkg/response"
)

// limiterIdle is how long a client may go unseen before its bucket is evicted.
const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one token bucket per client and evicts idle ones so
// the map stays bounded by the set of recently active clients.
type limiterPool struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	maxIdle   time.Duration
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func newLimiterPool(rps float64, burst int, maxIdle time.Duration) *limiterPool {
	return &limiterPool{
		rps:     rate.Limit(rps),
		burst:   burst,
		maxIdle: maxIdle,
		entries: make(map[string]*limiterEntry),
	}
}

func (p *limiterPool) get(client string, now time.Time) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if now.Sub(p.lastSweep) >= p.maxIdle {
		for k, e := range p.entries {
			if now.Sub(e.lastSeen) > p.maxIdle {
				delete(p.entries, k)
			}
		}
		p.lastSweep = now
	}
	e, ok := p.entries[client]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(p.rps, p.burst)}
		p.entries[client] = e
	}
	e.lastSeen = now
	return e.lim
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// RateLimit applies a token-bucket limit per client IP.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	pool := newLimiterPool(rps, burst, limiterIdle)
	return func(c *gin.Context) {
		if !pool.get(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Code:    http.StatusTooManyRequests,
				Message: "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
