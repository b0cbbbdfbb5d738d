package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"livecast/internal/core/domain"
	"livecast/pkg/config"

	"github.com/gin-gonic/gin"
)

// Test that when rate limiting is disabled, middleware lets all requests through.
func TestCommentRateLimitMiddleware_Disabled_AllowsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = false

	router := gin.New()
	router.Use(NewCommentRateLimitMiddleware(cfg, NewLimiterStore(1, 1)))
	router.POST("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/test", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	}
}

// Test basic per-identity rate limiting behaviour.
func TestCommentRateLimitMiddleware_Enabled_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true

	store := NewLimiterStore(1, 1)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextIdentityKey, domain.Identity("viewer-1"))
		c.Next()
	})
	router.Use(NewCommentRateLimitMiddleware(cfg, store))
	router.POST("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// First request should pass.
	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest(http.MethodPost, "/test", nil)
	router.ServeHTTP(w1, req1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected status 200 for first request, got %d", w1.Code)
	}

	// Second immediate request from the same identity should be limited.
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest(http.MethodPost, "/test", nil)
	router.ServeHTTP(w2, req2)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 for second request, got %d", w2.Code)
	}
}

// Test that missing identity is rejected rather than limited globally.
func TestCommentRateLimitMiddleware_MissingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true

	router := gin.New()
	router.Use(NewCommentRateLimitMiddleware(cfg, NewLimiterStore(1, 1)))
	router.POST("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/test", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestLimiterStoreForget(t *testing.T) {
	store := NewLimiterStore(1, 1)

	if !store.Allow("viewer-1") {
		t.Fatal("expected first call to be allowed")
	}
	if store.Allow("viewer-1") {
		t.Fatal("expected second call to be limited")
	}

	// Forgetting resets the identity's budget.
	store.Forget("viewer-1")
	if !store.Allow("viewer-1") {
		t.Fatal("expected call after Forget to be allowed")
	}
}
