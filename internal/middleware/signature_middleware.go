package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"matchpush/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

const SignatureHeader = "X-Platform-Signature"

// SignatureMiddleware verifies the platform's HMAC-SHA256 body signature
// before the payload is parsed. With an empty secret the check is
// disabled (local development).
func SignatureMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, httpdto.NewErrorResponse("unreadable body", "INVALID_REQUEST"))
			return
		}
		// Restore the body for the handler's binding.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !ValidSignature(secret, body, c.GetHeader(SignatureHeader)) {
			c.AbortWithStatusJSON(http.StatusForbidden, httpdto.NewErrorResponse("invalid signature", "FORBIDDEN"))
			return
		}
		c.Next()
	}
}

// ValidSignature checks a base64 HMAC-SHA256 signature over body.
func ValidSignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
