package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxAuthLen = 4096

// InternalAuthMiddleware guards endpoints called by the condition
// evaluation pipeline rather than end users. Callers present the shared
// service token as a Bearer credential.
func InternalAuthMiddleware(serviceToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if len(authHeader) > maxAuthLen {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header too long"})
			return
		}

		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header; expected Bearer token"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(serviceToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid service token"})
			return
		}

		c.Next()
	}
}
