package generation

import "llm-service/internal/llm"

type generateRequest struct {
	Prompt          string  `json:"prompt"`
	ProviderID      string  `json:"providerId"`
	MaxTokens       int     `json:"maxTokens"`
	Temperature     float64 `json:"temperature"`
	UseCache        *bool   `json:"useCache"`
	CacheTTLMinutes *int    `json:"cacheTtlMinutes"`
}

func (r generateRequest) toRequest() Request {
	req := Request{
		Prompt:          r.Prompt,
		ProviderID:      r.ProviderID,
		MaxTokens:       r.MaxTokens,
		Temperature:     r.Temperature,
		UseCache:        true,
		CacheTTLMinutes: DefaultCacheTTLMinutes,
	}
	if r.UseCache != nil {
		req.UseCache = *r.UseCache
	}
	if r.CacheTTLMinutes != nil {
		req.CacheTTLMinutes = *r.CacheTTLMinutes
	}
	return req
}

// GenerateResponse is the JSON body returned by POST /llm/generate.
type GenerateResponse struct {
	GeneratedText   string `json:"generatedText"`
	ProviderUsed    string `json:"providerUsed"`
	TokensGenerated *int   `json:"tokensGenerated"`
}

// ToResponse converts a generation result to its JSON shape.
func ToResponse(out llm.GeneratedText) GenerateResponse {
	return GenerateResponse{
		GeneratedText:   out.Text,
		ProviderUsed:    out.ProviderID,
		TokensGenerated: out.TokensGenerated,
	}
}

// ProviderInfo describes one registered provider.
type ProviderInfo struct {
	ID                string  `json:"id"`
	StructuredParsing bool    `json:"structuredParsing"`
	TemperatureMin    float64 `json:"temperatureMin"`
	TemperatureMax    float64 `json:"temperatureMax"`
}

// ProvidersResponse is the JSON body returned by GET /llm/providers.
type ProvidersResponse struct {
	Default   string         `json:"default"`
	Providers []ProviderInfo `json:"providers"`
}
