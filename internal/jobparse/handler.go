package jobparse

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"llm-service/internal/llm"
	"llm-service/internal/shared/server/middleware"
	"llm-service/internal/shared/server/respond"
	"llm-service/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the job parsing service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches job parsing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/llm/parse-job", h.parseJob)
}

func (h *Handler) parseJob(c *gin.Context) {
	var body parseJobRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "invalid request body", nil)
		return
	}
	body.JobURL = strings.TrimSpace(body.JobURL)
	if body.JobURL == "" {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "jobUrl is required", []map[string]string{
			{"field": "jobUrl", "issue": "required"},
		})
		return
	}

	posting, err := h.Svc.ExtractStructured(c.Request.Context(), body.JobURL, body.ProviderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(middleware.ProviderUsedKey, posting.ParsedByProvider)
	respond.OK(c, posting)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		fetchErr       *ContentFetchError
		malformedErr   *llm.MalformedOutputError
		invalidErr     *llm.InvalidProviderError
		unsupportedErr *llm.UnsupportedOperationError
		providerErr    *llm.ProviderError
	)
	switch {
	case errors.As(err, &fetchErr):
		respond.Error(c, http.StatusBadRequest, "content_fetch_error", fetchErr.Error(), gin.H{"jobUrl": fetchErr.URL})
	case errors.As(err, &malformedErr):
		respond.Error(c, http.StatusBadRequest, "malformed_output", malformedErr.Error(), gin.H{
			"provider":          malformedErr.Provider,
			"rawProviderOutput": malformedErr.Raw,
		})
	case errors.As(err, &invalidErr):
		respond.Error(c, http.StatusBadRequest, "invalid_provider", invalidErr.Error(), gin.H{
			"providerId": invalidErr.Name,
			"available":  h.Svc.Registry.Names(),
		})
	case errors.As(err, &unsupportedErr):
		respond.Error(c, http.StatusBadRequest, "unsupported_operation", unsupportedErr.Error(), gin.H{
			"provider": unsupportedErr.Provider,
		})
	case errors.As(err, &providerErr):
		respond.Error(c, http.StatusBadRequest, "provider_error", providerErr.Error(), gin.H{
			"provider": providerErr.Provider,
		})
	default:
		telemetry.Error("jobparse.unexpected_error", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to parse job posting", nil)
	}
}
