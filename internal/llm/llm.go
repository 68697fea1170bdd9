package llm

import (
	"context"
	"strings"
)

const (
	defaultMinTemperature = 0.0
	defaultMaxTemperature = 2.0
)

// Provider abstracts a text-generation backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, input GenerateInput) (GeneratedText, error)
}

// StructuredParser is implemented by providers that can turn free-form text
// into a JobPosting.
type StructuredParser interface {
	ParseStructured(ctx context.Context, text string) (JobPosting, error)
}

// TemperatureRange is implemented by providers whose accepted temperature
// range differs from the default [0, 2].
type TemperatureRange interface {
	TemperatureRange() (min, max float64)
}

// GenerateInput captures the inputs needed for a single generation call.
type GenerateInput struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// GeneratedText is the normalized result of a generation call.
// TokensGenerated is nil when the backend did not report usage.
type GeneratedText struct {
	Text            string
	ProviderID      string
	TokensGenerated *int
}

// AsStructuredParser reports whether p supports structured parsing.
func AsStructuredParser(p Provider) (StructuredParser, bool) {
	if p == nil {
		return nil, false
	}
	sp, ok := p.(StructuredParser)
	return sp, ok
}

// TemperatureBounds returns the accepted temperature range for p.
func TemperatureBounds(p Provider) (float64, float64) {
	if tr, ok := p.(TemperatureRange); ok {
		return tr.TemperatureRange()
	}
	return defaultMinTemperature, defaultMaxTemperature
}

// NormalizeProviderID lowercases and trims a provider id.
func NormalizeProviderID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
