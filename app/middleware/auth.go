package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"modelctl/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware simple bearer token authentication; an empty token disables it
func AuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			logger.WarnCtx(c.Request.Context(), "unauthorized status request from %s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Next()
	}
}
