package generation

import (
	"math"
	"strings"
)

const (
	DefaultCacheTTLMinutes = 60
	MaxCacheTTLMinutes     = 60 * 24 * 30
)

// Request is a single text-generation request.
type Request struct {
	Prompt          string
	ProviderID      string
	MaxTokens       int
	Temperature     float64
	UseCache        bool
	CacheTTLMinutes int
}

// validate checks everything that does not depend on the resolved provider.
func (r Request) validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: "prompt", Msg: "must not be empty"}
	}
	if r.MaxTokens <= 0 {
		return &ValidationError{Field: "maxTokens", Msg: "must be greater than 0"}
	}
	if math.IsNaN(r.Temperature) || math.IsInf(r.Temperature, 0) {
		return &ValidationError{Field: "temperature", Msg: "must be a finite number"}
	}
	if r.UseCache {
		if r.CacheTTLMinutes <= 0 {
			return &ValidationError{Field: "cacheTtlMinutes", Msg: "must be greater than 0"}
		}
		if r.CacheTTLMinutes > MaxCacheTTLMinutes {
			return &ValidationError{Field: "cacheTtlMinutes", Msg: "must be at most 43200"}
		}
	}
	return nil
}
