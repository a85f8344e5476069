package router

import (
	"net/http"
	"sync"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/api/dto"
	"github.com/duaneandrea/digitalk-test/internal/api/handler"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per acting user.
// Buckets are rebuilt after ttl so idle users don't accumulate.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	limiters sync.Map // user id -> *cachedLimiter
	now      func() time.Time
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst
func NewRateLimiter(rps float64, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		limit: rate.Limit(rps),
		burst: burst,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (l *RateLimiter) get(userID int64) *rate.Limiter {
	now := l.now()
	if v, ok := l.limiters.Load(userID); ok {
		cached := v.(*cachedLimiter)
		if now.Before(cached.expiresAt) {
			return cached.limiter
		}
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Store(userID, &cachedLimiter{
		limiter:   limiter,
		expiresAt: now.Add(l.ttl),
	})
	return limiter
}

// Middleware rejects requests over the limit with 429; it must run after ActorMiddleware
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := handler.Actor(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: UserIDHeader + " header is required"})
			return
		}

		if !l.get(actor.ID).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "too many requests"})
			return
		}

		c.Next()
	}
}
