package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/common/logger"
)

type contextKey string

const (
	// UserHeader carries the acting user's id. Authentication happens upstream.
	UserHeader     = "X-User-ID"
	AdminKeyHeader = "X-Admin-API-Key"

	userIDContextKey contextKey = "user_id"
)

// RequireUser rejects requests without an acting user and attaches the user
// id to the request context and its log fields.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserHeader + " header"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), userIDContextKey, userID)
		ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: &userID})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserID returns the acting user set by RequireUser, or "".
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}

// RequireAdminAPIKey guards operational endpoints. An empty key disables them.
func RequireAdminAPIKey(adminAPIKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminAPIKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API not configured"})
			return
		}

		apiKey := c.GetHeader(AdminKeyHeader)
		if apiKey == "" {
			apiKey = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminAPIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			return
		}

		c.Next()
	}
}
