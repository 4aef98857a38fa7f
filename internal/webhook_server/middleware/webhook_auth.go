package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SecureTokenHeader carries the shared secret the payment provider sends
// with every webhook call.
const SecureTokenHeader = "Secure-Token"

// WebhookAuth verifies the provider's shared secret before any payload
// processing. An empty configured token disables the check, which is only
// acceptable in local development.
func WebhookAuth(logger *slog.Logger, secretToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretToken == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(SecureTokenHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secretToken)) != 1 {
			logger.Warn("Webhook token mismatch",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid webhook token",
				},
			})
			return
		}

		c.Next()
	}
}
