package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/billing_backoffice/internal/core/ports/gateways"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader is forwarded from the caller to billing backend mutations.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// IdempotencyKey copies the caller's Idempotency-Key header into the request
// context. Requests without the header pass through untouched.
func IdempotencyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			GetLoggerFromCtx(c.Request.Context()).Warn("Idempotency key too long")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key must be at most 128 characters"})
			return
		}
		c.Request = c.Request.WithContext(gateways.WithIdempotencyKey(c.Request.Context(), key))
		c.Next()
	}
}
