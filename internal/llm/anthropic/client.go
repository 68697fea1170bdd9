package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"llm-service/internal/llm"
)

const (
	providerName     = "anthropic"
	defaultModel     = "claude-3-5-haiku-latest"
	anthropicVersion = "2023-06-01"
)

var defaultBaseURL = "https://api.anthropic.com"

// Options tunes the client; zero values use defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Provider and llm.StructuredParser for the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	prompts    llm.Renderer
	httpClient *http.Client
}

// NewClient constructs an Anthropic client.
func NewClient(apiKey, model string, prompts llm.Renderer, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if prompts == nil {
		return nil, fmt.Errorf("anthropic client requires a prompt renderer")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    base,
		prompts:    prompts,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func (c *Client) Name() string { return providerName }

// TemperatureRange reports the Messages API temperature bounds.
func (c *Client) TemperatureRange() (float64, float64) { return 0, 1 }

func (c *Client) Generate(ctx context.Context, input llm.GenerateInput) (llm.GeneratedText, error) {
	text, tokens, err := c.send(ctx, input.Prompt, input.Temperature, input.MaxTokens)
	if err != nil {
		return llm.GeneratedText{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "response empty content", nil)
	}
	return llm.GeneratedText{Text: text, ProviderID: providerName, TokensGenerated: tokens}, nil
}

// ParseStructured renders the job parser template and decodes the JSON reply.
func (c *Client) ParseStructured(ctx context.Context, text string) (llm.JobPosting, error) {
	prompt, err := c.prompts.Render(llm.TemplateJobParser, map[string]any{"job_description_text": text})
	if err != nil {
		return llm.JobPosting{}, llm.NewProviderError(providerName, "render prompt", err)
	}
	raw, _, err := c.send(ctx, prompt, llm.StructuredTemperature, llm.StructuredMaxTokens)
	if err != nil {
		return llm.JobPosting{}, err
	}
	return llm.DecodeJobPosting(providerName, raw)
}

func (c *Client) send(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, *int, error) {
	reqBody := messagesRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	}
	body, err := llm.DoJSON(ctx, c.httpClient, providerName, c.baseURL+"/v1/messages", reqBody,
		llm.Header{Key: "x-api-key", Value: c.apiKey},
		llm.Header{Key: "anthropic-version", Value: anthropicVersion},
	)
	if err != nil {
		return "", nil, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, llm.NewProviderError(providerName, "response parse", err)
	}
	if parsed.StopReason == "refusal" {
		return "", nil, llm.NewProviderError(providerName, "response refused by safety policy", nil)
	}
	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", nil, llm.NewProviderError(providerName, "response did not include text content", nil)
	}
	var tokens *int
	if parsed.Usage != nil {
		tokens = llm.IntPtr(parsed.Usage.OutputTokens)
	}
	return b.String(), tokens, nil
}

var (
	_ llm.Provider         = (*Client)(nil)
	_ llm.StructuredParser = (*Client)(nil)
	_ llm.TemperatureRange = (*Client)(nil)
)
