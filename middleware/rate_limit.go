package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yafa-kitchen/recipes/metrics"
	"github.com/yafa-kitchen/recipes/ratelimit"
	"github.com/yafa-kitchen/recipes/utils"
)

const throttleIdleTTL = 5 * time.Minute

type bucket struct {
	limiter *rate.Limiter
	expires time.Time
}

// APIThrottle is a per client IP token bucket for the authenticated API.
type APIThrottle struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

// NewAPIThrottle allows perMinute requests per minute per IP with bursts of half that.
func NewAPIThrottle(perMinute int) *APIThrottle {
	perMinute = max(perMinute, 1)
	return &APIThrottle{
		buckets: map[string]*bucket{},
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   max(perMinute/2, 1),
	}
}

func (t *APIThrottle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for k, b := range t.buckets {
		if now.After(b.expires) {
			delete(t.buckets, k)
		}
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[key] = b
	}
	b.expires = now.Add(throttleIdleTTL)
	return b.limiter.Allow()
}

// Handler rejects requests over the bucket with 429.
func (t *APIThrottle) Handler(route string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !t.allow(ctx.ClientIP()) {
			metrics.RecordRateLimited(route)
			utils.Abort(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}

// ViewRateLimit applies a fixed-window limiter keyed by route and client IP,
// for example "site-view:203.0.113.7".
func ViewRateLimit(l ratelimit.Limiter, route string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !l.Allow(route + ":" + ctx.ClientIP()) {
			metrics.RecordRateLimited(route)
			utils.Abort(ctx, http.StatusTooManyRequests, 42901, "too many requests")
			return
		}
		ctx.Next()
	}
}

// RequestTimeout bounds the request context of downstream handlers.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c, cancel := context.WithTimeout(ctx.Request.Context(), d)
		defer cancel()
		ctx.Request = ctx.Request.WithContext(c)
		ctx.Next()
	}
}
