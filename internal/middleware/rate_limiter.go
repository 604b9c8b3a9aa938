package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/riveravet/clinic-api/pkg/httputil"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(config.Rate, config.Burst),
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter.Allow() {
			httputil.Abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// ClientRateLimiter keeps one token bucket per caller. Buckets of idle
// callers expire from the cache.
type ClientRateLimiter struct {
	clients *cache.Cache
	rate    rate.Limit
	burst   int
}

// NewClientRateLimiter allows perMinute requests per caller with a burst of the same size.
func NewClientRateLimiter(perMinute int) *ClientRateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &ClientRateLimiter{
		clients: cache.New(10*time.Minute, 5*time.Minute),
		rate:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
	}
}

func (rl *ClientRateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.clients.Get(key); ok {
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	// Add loses to a concurrent insert; use whichever bucket won.
	if err := rl.clients.Add(key, l, cache.DefaultExpiration); err != nil {
		if v, ok := rl.clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// RateLimit keys on the authenticated user when present, the client IP otherwise.
func (rl *ClientRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if p, ok := Principal(c); ok {
			key = p.UserID.String()
		}

		l := rl.limiter(key)
		if !l.Allow() {
			httputil.Abort(c, http.StatusTooManyRequests, "too many requests, please slow down")
			return
		}
		// Touch the entry so active callers keep their bucket.
		rl.clients.Set(key, l, cache.DefaultExpiration)
		c.Next()
	}
}
