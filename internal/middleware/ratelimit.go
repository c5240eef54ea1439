package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DistributedLimiter is a shared token bucket, typically Redis
type DistributedLimiter interface {
	AllowAction(ctx context.Context, clientKey string, action string, rate int, burst int) (bool, error)
}

type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rps      int
	burst    int
	shared   DistributedLimiter
	logger   *zap.Logger
}

// NewRateLimiter limits each client to rps requests per second. shared may be
// nil; when set it is consulted first and the local limiter is the fallback.
func NewRateLimiter(rps int, shared DistributedLimiter, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    rps * 2,
		shared:   shared,
		logger:   logger,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(rl.rps), rl.burst)
		rl.limiters[key] = limiter
	}

	return limiter
}

// Allow reports whether key may perform action now
func (rl *RateLimiter) Allow(ctx context.Context, key, action string) bool {
	if rl.shared != nil {
		ok, err := rl.shared.AllowAction(ctx, key, action, rl.rps, rl.burst)
		if err == nil {
			return ok
		}
		rl.logger.Warn("shared rate limiter failed, using local limiter", zap.Error(err))
	}
	return rl.getLimiter(key).Allow()
}

// Cleanup drops local limiters periodically until ctx is done
func (rl *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.mu.Lock()
				if len(rl.limiters) > 10000 {
					rl.limiters = make(map[string]*rate.Limiter)
				}
				rl.mu.Unlock()
			}
		}
	}()
}

// RateLimitMiddleware limits requests per client IP
func RateLimitMiddleware(rl *RateLimiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.Request.Context(), c.ClientIP(), action) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
