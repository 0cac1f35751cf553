package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/service"
)

const (
	userIDKey   = "user_id"
	usernameKey = "username"
)

// TokenParser validates session tokens
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the context
func RequireAuth(parser TokenParser, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "a bearer token is required",
			})
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("invalid token",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

// RequireAdmin only lets the configured admin user through. It must run after RequireAuth.
// An empty adminUsername closes the admin routes to everyone.
func RequireAdmin(adminUsername string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminUsername == "" || Username(c) != adminUsername {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "admin access required",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Username returns the authenticated username, empty when unauthenticated
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}
