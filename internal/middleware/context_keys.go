package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// operatorIDKey stores the authenticated operator's ID in the request context.
const operatorIDKey = contextKey("operatorID")

// WithOperatorID returns a copy of ctx carrying the operator ID.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, operatorIDKey, operatorID)
}

// GetOperatorIDFromCtx retrieves the operator ID from a standard context.
func GetOperatorIDFromCtx(ctx context.Context) (string, bool) {
	operatorID, ok := ctx.Value(operatorIDKey).(string)
	return operatorID, ok && operatorID != ""
}

// GetOperatorIDFromContext retrieves the authenticated operator ID from the Gin context.
// It returns the operator ID and a boolean indicating if it was found.
func GetOperatorIDFromContext(c *gin.Context) (string, bool) {
	return GetOperatorIDFromCtx(c.Request.Context())
}
