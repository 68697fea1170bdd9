package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"llm-service/internal/llm"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.0-flash"
)

var defaultBaseURL = "https://generativelanguage.googleapis.com"

var safetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// Options tunes the client; zero values use defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Provider and llm.StructuredParser for the Gemini
// generateContent API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	prompts    llm.Renderer
	httpClient *http.Client
}

// NewClient constructs a Gemini client. prompts renders the generic and job parser templates.
func NewClient(apiKey, model string, prompts llm.Renderer, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required")
	}
	if prompts == nil {
		return nil, fmt.Errorf("gemini client requires a prompt renderer")
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

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata,omitempty"`
}

func (c *Client) Name() string { return providerName }

// Generate wraps the prompt in the generic template before sending it.
func (c *Client) Generate(ctx context.Context, input llm.GenerateInput) (llm.GeneratedText, error) {
	prompt, err := c.prompts.Render(llm.TemplateGeneric, map[string]any{"user_prompt": input.Prompt})
	if err != nil {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "render prompt", err)
	}
	text, tokens, err := c.generate(ctx, prompt, input.Temperature, input.MaxTokens, true)
	if err != nil {
		return llm.GeneratedText{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "response empty content", nil)
	}
	return llm.GeneratedText{Text: text, ProviderID: providerName, TokensGenerated: tokens}, nil
}

// ParseStructured asks the model to emit a job posting as JSON and decodes it.
func (c *Client) ParseStructured(ctx context.Context, text string) (llm.JobPosting, error) {
	prompt, err := c.prompts.Render(llm.TemplateJobParser, map[string]any{"job_description_text": text})
	if err != nil {
		return llm.JobPosting{}, llm.NewProviderError(providerName, "render prompt", err)
	}
	raw, _, err := c.generate(ctx, prompt, llm.StructuredTemperature, llm.StructuredMaxTokens, false)
	if err != nil {
		return llm.JobPosting{}, err
	}
	return llm.DecodeJobPosting(providerName, raw)
}

func (c *Client) generate(ctx context.Context, prompt string, temperature float64, maxTokens int, relaxSafety bool) (string, *int, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
			TopP:            1,
			TopK:            1,
		},
	}
	if relaxSafety {
		for _, category := range safetyCategories {
			reqBody.SafetySettings = append(reqBody.SafetySettings, safetySetting{Category: category, Threshold: "BLOCK_NONE"})
		}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	body, err := llm.DoJSON(ctx, c.httpClient, providerName, endpoint, reqBody,
		llm.Header{Key: "x-goog-api-key", Value: c.apiKey})
	if err != nil {
		return "", nil, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, llm.NewProviderError(providerName, "response parse", err)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", nil, llm.NewProviderError(providerName, "prompt blocked by safety settings: "+parsed.PromptFeedback.BlockReason, nil)
	}
	if len(parsed.Candidates) == 0 {
		return "", nil, llm.NewProviderError(providerName, "response did not include any candidates", nil)
	}
	candidate := parsed.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
		return "", nil, llm.NewProviderError(providerName, "response blocked by safety settings", nil)
	}
	if len(candidate.Content.Parts) == 0 {
		return "", nil, llm.NewProviderError(providerName, "response did not return generated text", nil)
	}

	var b strings.Builder
	for _, p := range candidate.Content.Parts {
		b.WriteString(p.Text)
	}
	var tokens *int
	if parsed.UsageMetadata != nil && parsed.UsageMetadata.CandidatesTokenCount > 0 {
		tokens = llm.IntPtr(parsed.UsageMetadata.CandidatesTokenCount)
	}
	return b.String(), tokens, nil
}

var (
	_ llm.Provider         = (*Client)(nil)
	_ llm.StructuredParser = (*Client)(nil)
)
