// utils/auth.go
package utils

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireToken guards the ops endpoints with a static bearer token. The
// digest service has no interactive users, so there are no sessions to sign;
// one shared token for the trigger/runs endpoints is all the surface needs.
func RequireToken(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.AbortWithStatusJSON(503, gin.H{"error": "Ops API token is not configured"})
			return
		}

		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "Authorization header required"})
			return
		}

		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:6]) == "BEARER" {
			tokenString = tokenString[7:]
		}

		if subtle.ConstantTimeCompare([]byte(tokenString), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(401, gin.H{"error": "Invalid token"})
			return
		}

		c.Next()
	}
}
