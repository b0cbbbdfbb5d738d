package middleware

import (
	"net/http"
	"sync"

	"livecast/pkg/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LimiterStore keeps per-identity comment limiters. The WebSocket
// gateway shares one store with the HTTP layer so a client cannot
// sidestep the limit by switching transports.
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func NewLimiterStore(r float64, burst int) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(r),
		burst:    burst,
	}
}

// Allow reports whether the given identity may send one more comment.
func (s *LimiterStore) Allow(key string) bool {
	s.mu.Lock()
	limiter, exists := s.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(s.rate, s.burst)
		s.limiters[key] = limiter
	}
	s.mu.Unlock()

	return limiter.Allow()
}

// Forget drops the limiter state for an identity. Called when a viewer
// disconnects so the store does not grow without bound.
func (s *LimiterStore) Forget(key string) {
	s.mu.Lock()
	delete(s.limiters, key)
	s.mu.Unlock()
}

// NewCommentRateLimitMiddleware returns Gin middleware that applies
// per-identity rate limiting to comment sends. It must run after
// AuthMiddleware.
func NewCommentRateLimitMiddleware(cfg *config.Config, store *LimiterStore) gin.HandlerFunc {
	if !cfg.RateLimiting.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		if !store.Allow(string(identity)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "comment rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
