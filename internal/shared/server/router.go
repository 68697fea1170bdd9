package server

import (
	"github.com/gin-gonic/gin"

	"llm-service/internal/generation"
	"llm-service/internal/jobparse"
	"llm-service/internal/services/health"
	"llm-service/internal/shared/config"
	"llm-service/internal/shared/metrics"
	"llm-service/internal/shared/server/middleware"
	"llm-service/internal/shared/server/respond"
	"llm-service/internal/userdata"
)

const (
	rateGroupGenerate = "GENERATE"
	rateGroupParse    = "PARSE"
)

// RouterDeps carries the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	GenerationHandler *generation.Handler
	JobParseHandler   *jobparse.Handler
	UserDataHandler   *userdata.Handler
	Limiter           *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cfg := deps.Config
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.APIKey(cfg.APIKeys),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				rateGroupGenerate: {Rate: cfg.GenerateRateRPS, Burst: cfg.GenerateRateBurst},
				rateGroupParse:    {Rate: cfg.ParseRateRPS, Burst: cfg.ParseRateBurst},
			},
			GroupFor: middleware.GroupByRoute(map[string]string{
				"POST /api/v1/llm/generate":  rateGroupGenerate,
				"POST /api/v1/llm/parse-job": rateGroupParse,
			}),
			Limiter: deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.Health(c, true, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		respond.Health(c, report.OK, report)
	})
	if deps.GenerationHandler != nil {
		deps.GenerationHandler.RegisterRoutes(api)
	}
	if deps.JobParseHandler != nil {
		deps.JobParseHandler.RegisterRoutes(api)
	}
	if deps.UserDataHandler != nil {
		deps.UserDataHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
