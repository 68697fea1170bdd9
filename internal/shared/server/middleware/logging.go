package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"llm-service/internal/shared/telemetry"
)

// ProviderUsedKey is set by handlers to record the resolved provider.
const ProviderUsedKey = "providerUsed"

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if id := ClientIDFromContext(c); id != "" {
			fields["client_id"] = id
		}
		if provider, ok := c.Get(ProviderUsedKey); ok {
			fields["provider"] = provider
		}
		telemetry.Info("request.complete", fields)
	}
}
