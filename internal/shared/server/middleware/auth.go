package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"llm-service/internal/shared/server/respond"
	"llm-service/internal/shared/util"
)

const clientIDKey = "clientId"

// APIKey requires a matching X-Api-Key or Bearer token when keys is non-empty.
// The caller is recorded as a hashed client id for logging and rate limiting.
func APIKey(keys []string) gin.HandlerFunc {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}
	return func(c *gin.Context) {
		if len(allowed) == 0 || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		if path == "/api/v1/health" || path == "/metrics" {
			c.Next()
			return
		}

		presented := strings.TrimSpace(c.GetHeader("X-Api-Key"))
		if presented == "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(authHeader, "Bearer ") {
				presented = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			}
		}
		if presented == "" || !matchKey(allowed, []byte(presented)) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid api key", nil)
			return
		}
		c.Set(clientIDKey, "key:"+util.HashKey(presented)[:12])
		c.Next()
	}
}

func matchKey(allowed [][]byte, presented []byte) bool {
	ok := 0
	for _, k := range allowed {
		ok |= subtle.ConstantTimeCompare(k, presented)
	}
	return ok == 1
}

// ClientIDFromContext fetches the client id set by APIKey, if any.
func ClientIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(clientIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
