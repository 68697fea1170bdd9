package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"llm-service/internal/llm"
)

type capture struct {
	mu     sync.Mutex
	path   string
	apiKey string
	body   generateRequest
}

func newTestClient(t *testing.T, respBody string, status int) (*Client, *capture) {
	t.Helper()
	c := &capture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		c.mu.Lock()
		c.path = r.URL.Path
		c.apiKey = r.Header.Get("x-goog-api-key")
		c.body = req
		c.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient("g-key", "", llm.EmbeddedPrompts{}, Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, c
}

func TestGenerateUsesTemplateAndSafetySettings(t *testing.T) {
	client, c := newTestClient(t, `{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"world "}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":2}}`, http.StatusOK)

	out, err := client.Generate(context.Background(), llm.GenerateInput{Prompt: "say hello", MaxTokens: 64, Temperature: 0.7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Text != "Hello world" {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if out.TokensGenerated == nil || *out.TokensGenerated != 2 {
		t.Fatalf("expected 2 tokens, got %v", out.TokensGenerated)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path != "/v1beta/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("unexpected path %q", c.path)
	}
	if c.apiKey != "g-key" {
		t.Fatalf("expected api key header")
	}
	if len(c.body.Contents) != 1 || !strings.Contains(c.body.Contents[0].Parts[0].Text, "say hello") {
		t.Fatalf("expected templated prompt to embed user prompt, got %+v", c.body.Contents)
	}
	if c.body.Contents[0].Parts[0].Text == "say hello" {
		t.Fatalf("expected prompt to be wrapped by the generic template")
	}
	cfg := c.body.GenerationConfig
	if cfg.MaxOutputTokens != 64 || cfg.Temperature != 0.7 || cfg.TopP != 1 || cfg.TopK != 1 {
		t.Fatalf("unexpected generation config %+v", cfg)
	}
	if len(c.body.SafetySettings) != 4 || c.body.SafetySettings[0].Threshold != "BLOCK_NONE" {
		t.Fatalf("unexpected safety settings %+v", c.body.SafetySettings)
	}
}

func TestGenerateBlockedPrompt(t *testing.T) {
	client, _ := newTestClient(t, `{"promptFeedback":{"blockReason":"SAFETY"}}`, http.StatusOK)
	_, err := client.Generate(context.Background(), llm.GenerateInput{Prompt: "x", MaxTokens: 8})
	var pe *llm.ProviderError
	if !errors.As(err, &pe) || !strings.Contains(pe.Msg, "blocked") {
		t.Fatalf("expected blocked ProviderError, got %v", err)
	}
}

func TestGenerateNoCandidates(t *testing.T) {
	client, _ := newTestClient(t, `{"candidates":[]}`, http.StatusOK)
	_, err := client.Generate(context.Background(), llm.GenerateInput{Prompt: "x", MaxTokens: 8})
	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestGenerateQuotaExceeded(t *testing.T) {
	client, _ := newTestClient(t, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
	_, err := client.Generate(context.Background(), llm.GenerateInput{Prompt: "x", MaxTokens: 8})
	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !pe.Retryable || !strings.Contains(pe.Msg, "Resource has been exhausted") {
		t.Fatalf("unexpected provider error %+v", pe)
	}
}

func TestParseStructuredStripsFence(t *testing.T) {
	client, c := newTestClient(t, `{"candidates":[{"content":{"parts":[{"text":"`+"```json\\n{\\\"title\\\":\\\"Eng\\\"}\\n```"+`"}]}}]}`, http.StatusOK)

	got, err := client.ParseStructured(context.Background(), "We are hiring an engineer.")
	if err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if got.Title != "Eng" {
		t.Fatalf("expected title Eng, got %q", got.Title)
	}
	if got.ParsedByProvider != "gemini" {
		t.Fatalf("unexpected parsedByProvider %q", got.ParsedByProvider)
	}
	if got.RawProviderOutput != "```json\n{\"title\":\"Eng\"}\n```" {
		t.Fatalf("unexpected raw output %q", got.RawProviderOutput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.body.GenerationConfig.Temperature != 0.2 || c.body.GenerationConfig.MaxOutputTokens != 1000 {
		t.Fatalf("unexpected structured generation config %+v", c.body.GenerationConfig)
	}
	if !strings.Contains(c.body.Contents[0].Parts[0].Text, "We are hiring an engineer.") {
		t.Fatalf("expected job text in prompt")
	}
}

func TestParseStructuredMalformed(t *testing.T) {
	client, _ := newTestClient(t, `{"candidates":[{"content":{"parts":[{"text":"not json"}]}}]}`, http.StatusOK)

	_, err := client.ParseStructured(context.Background(), "text")
	var me *llm.MalformedOutputError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedOutputError, got %v", err)
	}
	if me.Raw != "not json" {
		t.Fatalf("expected raw text preserved, got %q", me.Raw)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "", llm.EmbeddedPrompts{}, Options{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if _, err := NewClient("k", "", nil, Options{}); err == nil {
		t.Fatalf("expected error for missing renderer")
	}
}
