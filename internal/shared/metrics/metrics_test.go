package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAreLabelledByProvider(t *testing.T) {
	hits := testutil.ToFloat64(cacheHits.WithLabelValues("gemini"))
	misses := testutil.ToFloat64(cacheMisses.WithLabelValues("openai"))

	IncCacheHits("gemini")
	IncCacheHits("gemini")
	IncCacheMisses("openai")

	if got := testutil.ToFloat64(cacheHits.WithLabelValues("gemini")) - hits; got != 2 {
		t.Fatalf("expected +2 gemini hits, got %v", got)
	}
	if got := testutil.ToFloat64(cacheMisses.WithLabelValues("openai")) - misses; got != 1 {
		t.Fatalf("expected +1 openai miss, got %v", got)
	}
}

func TestAddCacheSweptIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(cacheSwept)
	AddCacheSwept(3)
	AddCacheSwept(0)
	AddCacheSwept(-2)
	if got := testutil.ToFloat64(cacheSwept) - before; got != 3 {
		t.Fatalf("expected +3, got %v", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncGenerateRequests()
	IncProviderErrors("anthropic", OpParse)
	ObserveProviderDuration("anthropic", OpParse, 1500*time.Millisecond)

	r := gin.New()
	r.GET("/metrics", Handler())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{
		"# TYPE llm_generate_requests_total counter",
		`llm_provider_errors_total{operation="parse_structured",provider="anthropic"}`,
		`llm_provider_duration_seconds_bucket{operation="parse_structured",provider="anthropic",le="2"}`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}
