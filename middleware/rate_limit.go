package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c echo.Context) string

// RealIPKey buckets requests by client IP.
func RealIPKey(c echo.Context) string {
	return c.RealIP()
}

// clientLimiter holds a rate limiter and the last time it was seen.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client bucket.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	key      KeyFunc
	idle     time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewRateLimiter creates a limiter allowing r requests per second with the
// given burst for each bucket. A nil key buckets by client IP.
func NewRateLimiter(r rate.Limit, burst int, key KeyFunc) *RateLimiter {
	if key == nil {
		key = RealIPKey
	}
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     r,
		burst:    burst,
		key:      key,
		idle:     5 * time.Minute,
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop(3 * time.Minute)
	return rl
}

// getLimiter returns the limiter for a bucket, creating one if needed.
func (rl *RateLimiter) getLimiter(bucket string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, exists := rl.limiters[bucket]; exists {
		l.lastSeen = time.Now()
		return l.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[bucket] = &clientLimiter{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// evictIdle drops buckets not seen for longer than the idle window.
func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for bucket, l := range rl.limiters {
		if time.Since(l.lastSeen) > rl.idle {
			delete(rl.limiters, bucket)
		}
	}
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// Middleware returns an Echo middleware that enforces the rate limit.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.getLimiter(rl.key(c)).Allow() {
				retryAfter := max(int(1.0/float64(rl.rate)), 1)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
