package middleware

import (
	"context"
	"net/http"
	"strings"

	"livecast/internal/core/domain"
	"livecast/internal/core/services"
	"livecast/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	ContextIdentityKey = "identity"
	ContextRoleKey     = "role"
)

// AuthMiddleware validates the bearer token and stores the caller's
// identity and role in the request context.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromRequest(c, authService)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(ContextIdentityKey, claims.Identity)
		c.Set(ContextRoleKey, claims.Role)

		// Also placed in the request context so context-aware loggers
		// downstream can attribute log lines to the caller.
		ctx := context.WithValue(c.Request.Context(), logger.IdentityKey, string(claims.Identity))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ModeratorMiddleware requires a host or moderator role. It must run
// after AuthMiddleware.
func ModeratorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRoleKey)
		if !services.CanModerate(role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "moderator role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the authenticated identity set by
// AuthMiddleware.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, exists := c.Get(ContextIdentityKey)
	if !exists {
		return "", false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}

func claimsFromRequest(c *gin.Context, authService services.AuthService) (*services.Claims, error) {
	token := bearerToken(c)
	if token == "" {
		// WebSocket clients cannot set headers from browsers, so the
		// token is also accepted as a query parameter.
		token = c.Query("token")
	}
	if token == "" {
		return nil, services.ErrInvalidToken
	}
	return authService.ValidateToken(token)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
