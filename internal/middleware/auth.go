package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DebugAuth guards the debug endpoints with a static bearer token. With no
// token configured the endpoints are open, which is the expected mode on a
// developer machine.
func DebugAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}
