package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with status. API responses are never cacheable by
// intermediaries; caching happens in the llm cache only.
func JSON(c *gin.Context, status int, payload any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 with Location pointing at the new resource.
func Created(c *gin.Context, location string, payload any) {
	if location != "" {
		c.Header("Location", location)
	}
	JSON(c, http.StatusCreated, payload)
}

// Health writes a health report: 200 when healthy, 503 otherwise.
func Health(c *gin.Context, healthy bool, report any) {
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	JSON(c, status, report)
}
