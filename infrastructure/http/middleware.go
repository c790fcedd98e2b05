package http

import (
	"net/http"
	"strings"

	"pairchat/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userID"
	ctxUsername = "username"
)

// RequireAuth validates the bearer token and binds the caller's identity to
// the request context. Every failure mode answers with the same generic 401.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			unauthorized(c)
			return
		}

		claims, err := auth.ValidateToken(token, secret)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "unauthorized",
	})
}

func callerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
