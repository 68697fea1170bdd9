package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"llm-service/internal/generation"
	"llm-service/internal/llm"
	"llm-service/internal/llmcache"
	"llm-service/internal/services/health"
	"llm-service/internal/shared/config"
)

type echoProvider struct{}

func (echoProvider) Name() string { return "gemini" }

func (echoProvider) Generate(ctx context.Context, in llm.GenerateInput) (llm.GeneratedText, error) {
	return llm.GeneratedText{Text: "echo: " + in.Prompt, ProviderID: "gemini"}, nil
}

func testConfig() config.Config {
	return config.Config{
		CORSAllowOrigin:   []string{"http://localhost:5173"},
		GenerateRateRPS:   1,
		GenerateRateBurst: 1,
		ParseRateRPS:      1,
		ParseRateBurst:    1,
	}
}

func newTestRouter(cfg config.Config, hs *health.Service) http.Handler {
	svc := &generation.Service{
		Registry: llm.NewRegistry("gemini", echoProvider{}),
		Cache:    llmcache.NewMemoryRepo(),
	}
	return NewRouter(RouterDeps{
		Config:            cfg,
		Health:            hs,
		GenerationHandler: generation.NewHandler(svc),
	})
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(testConfig(), nil)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected health response %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "llm_generate_requests_total") {
		t.Fatalf("unexpected metrics response %d", resp.Code)
	}
}

func TestHealthReportsFailingCheck(t *testing.T) {
	hs := health.NewService(0)
	hs.Register("cache", func(ctx context.Context) error { return errors.New("down") })
	r := newTestRouter(testConfig(), hs)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func generateRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/llm/generate", bytes.NewBufferString(`{"prompt":"hi","maxTokens":10,"temperature":0.5}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Api-Key", key)
	}
	return req
}

func TestGenerateRouteIsRateLimited(t *testing.T) {
	r := newTestRouter(testConfig(), nil)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, generateRequest(""))
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", first.Code, first.Body.String())
	}
	second := httptest.NewRecorder()
	r.ServeHTTP(second, generateRequest(""))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
}

func TestAPIKeysGuardRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.APIKeys = []string{"secret"}
	r := newTestRouter(cfg, nil)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, generateRequest(""))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, generateRequest("secret"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health should stay open, got %d", resp.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
