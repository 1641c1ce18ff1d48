package middleware

import (
	"fmt"
	"sync"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/httpx"
	"foodshare-api/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter map before idle entries are pruned.
const maxTrackedClients = 10000

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows max requests per window for each client, keyed by user
// id once authenticated and by client IP otherwise. Each client gets a token
// bucket holding max tokens that refills at max/window.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewRateLimiter(max int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Every(window / time.Duration(max)),
		burst:    max,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// getLimiter returns a rate limiter for the given key (user ID or IP)
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.limiters) >= maxTrackedClients {
		rl.prune(now)
	}
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// prune drops clients idle for a whole window; their bucket is full again.
func (rl *RateLimiter) prune(now time.Time) {
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > rl.window {
			delete(rl.limiters, key)
		}
	}
}

// Handler returns the rate limiting middleware
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetUserID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		if !rl.getLimiter(key).AllowN(rl.now(), 1) {
			rl.reject(c, key)
			return
		}
		c.Next()
	}
}

// Anonymous guards protected routes by client IP before authentication.
// Requests that finish without an authenticated user are charged to the IP
// bucket; signed-in requests are left to Handler.
func (rl *RateLimiter) Anonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		limiter := rl.getLimiter(key)
		if limiter.TokensAt(rl.now()) < 1 {
			rl.reject(c, key)
			return
		}
		c.Next()
		if GetUserID(c) == "" {
			limiter.AllowN(rl.now(), 1)
		}
	}
}

func (rl *RateLimiter) reject(c *gin.Context, key string) {
	metrics.IncrementRateLimited()
	rl.logger.Warn("rate_limit_exceeded",
		zap.String("key", key),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.Header("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
	httpx.Error(c, apperror.RateLimited("Too many requests from this client, please try again later."))
}
