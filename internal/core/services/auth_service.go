package services

import (
	"errors"
	"time"

	"livecast/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Roles carried in access tokens. Moderator and host may run
// moderation operations (ban, unban, delete comment, chat toggle).
const (
	RoleViewer    = "viewer"
	RoleHost      = "host"
	RoleModerator = "moderator"
)

type AuthService interface {
	GenerateToken(identity domain.Identity, role string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type Claims struct {
	Identity domain.Identity `json:"identity"`
	Role     string          `json:"role"`
	jwt.RegisteredClaims
}

// CanModerate reports whether a role may run moderation and lifecycle
// operations. Single source of truth for the moderator gate on both
// the HTTP and WebSocket surfaces.
func CanModerate(role string) bool {
	return role == RoleHost || role == RoleModerator
}

// CanModerate reports whether the token holder may run moderation
// operations.
func (c *Claims) CanModerate() bool {
	return CanModerate(c.Role)
}

type authService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) GenerateToken(identity domain.Identity, role string) (string, error) {
	claims := &Claims{
		Identity: identity,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
