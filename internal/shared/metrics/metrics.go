package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	generateRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llm_generate_requests_total",
		Help: "Total generation requests",
	})
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_cache_hits_total",
		Help: "Generation requests served from cache",
	}, []string{"provider"})
	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_cache_misses_total",
		Help: "Cache lookups without a usable entry",
	}, []string{"provider"})
	cacheExpired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_cache_expired_total",
		Help: "Cache lookups that found an expired entry",
	}, []string{"provider"})
	cacheWriteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_cache_write_failures_total",
		Help: "Cache writes that failed after a successful generation",
	}, []string{"provider"})
	cacheSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llm_cache_swept_total",
		Help: "Expired entries removed by the sweeper",
	})
	providerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_provider_errors_total",
		Help: "Provider calls that failed",
	}, []string{"provider", "operation"})
	providerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_provider_duration_seconds",
		Help:    "Provider call duration in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30, 60},
	}, []string{"provider", "operation"})
	jobParseRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_parse_requests_total",
		Help: "Total job parse requests",
	})
	jobParseFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_parse_failures_total",
		Help: "Job parse requests that failed",
	})
)

// Provider operations used as the "operation" label.
const (
	OpGenerate = "generate"
	OpParse    = "parse_structured"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		generateRequests,
		cacheHits,
		cacheMisses,
		cacheExpired,
		cacheWriteFailures,
		cacheSwept,
		providerErrors,
		providerDuration,
		jobParseRequests,
		jobParseFailures,
	)
}

func IncGenerateRequests() {
	generateRequests.Inc()
}

func IncCacheHits(provider string) {
	cacheHits.WithLabelValues(provider).Inc()
}

func IncCacheMisses(provider string) {
	cacheMisses.WithLabelValues(provider).Inc()
}

// IncCacheExpired counts lookups that found a stale entry.
func IncCacheExpired(provider string) {
	cacheExpired.WithLabelValues(provider).Inc()
}

// IncCacheWriteFailures counts cache writes that failed after a successful generation.
func IncCacheWriteFailures(provider string) {
	cacheWriteFailures.WithLabelValues(provider).Inc()
}

// AddCacheSwept adds n entries removed by the sweeper.
func AddCacheSwept(n int64) {
	if n > 0 {
		cacheSwept.Add(float64(n))
	}
}

func IncProviderErrors(provider, operation string) {
	providerErrors.WithLabelValues(provider, operation).Inc()
}

// ObserveProviderDuration records how long a backend call took.
func ObserveProviderDuration(provider, operation string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	providerDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

func IncJobParseRequests() {
	jobParseRequests.Inc()
}

func IncJobParseFailures() {
	jobParseFailures.Inc()
}

// Handler exposes Registry in the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
