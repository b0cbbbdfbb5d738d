package http

import (
	"net/http"
	"strings"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/services"
	"livecast/pkg/errors"
	"livecast/pkg/validation"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	tokenTTL    time.Duration
}

func NewAuthHandler(authService services.AuthService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokenTTL:    tokenTTL,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/token", h.IssueToken)
	}
}

type TokenRequest struct {
	Identity string `json:"identity" binding:"required,max=100"`
	Role     string `json:"role" binding:"omitempty,max=20"`
}

// IssueToken mints an access token for the given identity. Identity
// verification happens upstream (the platform's account service); this
// endpoint only encodes the already-authenticated identity and role.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Identity = strings.TrimSpace(req.Identity)
	if err := validation.ValidateIdentity(req.Identity); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	role := req.Role
	if role == "" {
		role = services.RoleViewer
	}
	switch role {
	case services.RoleViewer, services.RoleHost, services.RoleModerator:
	default:
		c.Error(errors.NewInvalidInputError("unknown role"))
		return
	}

	token, err := h.authService.GenerateToken(domain.Identity(req.Identity), role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.tokenTTL.Seconds()),
	})
}
