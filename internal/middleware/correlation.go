package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/resto-platform/core/internal/core"
)

const correlationHeader = "X-Correlation-ID"

// Correlation tags every request with a correlation id, accepting the
// caller's when present.
func Correlation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("correlation_id", id)
		c.Writer.Header().Set(correlationHeader, id)
		c.Request = c.Request.WithContext(core.WithCorrelation(c.Request.Context(), id))
		c.Next()
	}
}
