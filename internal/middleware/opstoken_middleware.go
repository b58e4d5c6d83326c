package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"matchpush/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// OpsTokenMiddleware guards the manual job-trigger endpoints with a
// static bearer token. An empty configured token disables the endpoints
// entirely rather than leaving them open.
func OpsTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, httpdto.NewErrorResponse("ops endpoints disabled", "FORBIDDEN"))
			return
		}

		header := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			return
		}
		c.Next()
	}
}
