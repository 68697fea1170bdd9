package openai

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
	providerName = "openai"
	defaultModel = "gpt-3.5-turbo"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

// Options tunes the client; zero values use defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Provider using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	url := apiURL
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		url = base + "/v1/chat/completions"
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		url:    url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) Name() string { return providerName }

// Generate sends the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, input llm.GenerateInput) (llm.GeneratedText, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: input.Prompt}},
		MaxTokens:   input.MaxTokens,
		Temperature: input.Temperature,
	}
	body, err := llm.DoJSON(ctx, c.httpClient, providerName, c.url, reqBody,
		llm.Header{Key: "Authorization", Value: "Bearer " + c.apiKey})
	if err != nil {
		return llm.GeneratedText{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "response parse", err)
	}
	if parsed.Error != nil {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type), nil)
	}
	if len(parsed.Choices) == 0 {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "response missing choices", nil)
	}
	choice := parsed.Choices[0]
	if choice.FinishReason == "content_filter" {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "response blocked by content filter", nil)
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "response empty content", nil)
	}

	out := llm.GeneratedText{Text: content, ProviderID: providerName}
	if parsed.Usage != nil {
		out.TokensGenerated = llm.IntPtr(parsed.Usage.CompletionTokens)
	}
	return out, nil
}

var _ llm.Provider = (*Client)(nil)
