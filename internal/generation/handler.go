package generation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"llm-service/internal/llm"
	"llm-service/internal/shared/server/middleware"
	"llm-service/internal/shared/server/respond"
	"llm-service/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the generation service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches generation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/llm/generate", h.generate)
	rg.GET("/llm/providers", h.providers)
}

func (h *Handler) generate(c *gin.Context) {
	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "invalid request body", nil)
		return
	}

	out, err := h.Svc.Generate(c.Request.Context(), body.toRequest())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(middleware.ProviderUsedKey, out.ProviderID)
	respond.OK(c, ToResponse(out))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		validationErr *ValidationError
		invalidErr    *llm.InvalidProviderError
		providerErr   *llm.ProviderError
	)
	switch {
	case errors.As(err, &validationErr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", validationErr.Error(), []map[string]string{
			{"field": validationErr.Field, "issue": validationErr.Msg},
		})
	case errors.As(err, &invalidErr):
		respond.Error(c, http.StatusBadRequest, "invalid_provider", invalidErr.Error(), gin.H{
			"providerId": invalidErr.Name,
			"available":  h.Svc.Registry.Names(),
		})
	case errors.As(err, &providerErr):
		c.Set(middleware.ProviderUsedKey, providerErr.Provider)
		respond.Error(c, http.StatusInternalServerError, "provider_error", providerErr.Error(), gin.H{
			"provider": providerErr.Provider,
		})
	default:
		telemetry.Error("generation.unexpected_error", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate text", nil)
	}
}

func (h *Handler) providers(c *gin.Context) {
	reg := h.Svc.Registry
	resp := ProvidersResponse{Default: reg.Default(), Providers: []ProviderInfo{}}
	for _, name := range reg.Names() {
		p, _, err := reg.Resolve(name)
		if err != nil {
			continue
		}
		_, structured := llm.AsStructuredParser(p)
		lo, hi := llm.TemperatureBounds(p)
		resp.Providers = append(resp.Providers, ProviderInfo{
			ID:                name,
			StructuredParsing: structured,
			TemperatureMin:    lo,
			TemperatureMax:    hi,
		})
	}
	respond.OK(c, resp)
}
