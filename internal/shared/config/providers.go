package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderOverride adjusts one provider adapter. Zero values keep the env defaults.
type ProviderOverride struct {
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries *int          `yaml:"max_retries"`
	Disabled   bool          `yaml:"disabled"`
}

// ProviderOverrides is keyed by lowercased provider id.
type ProviderOverrides map[string]ProviderOverride

type providersFile struct {
	Providers map[string]ProviderOverride `yaml:"providers"`
}

// LoadProviderOverrides reads a YAML file of the form:
//
//	providers:
//	  openai:
//	    model: gpt-4o-mini
//	    timeout: 30s
//	  anthropic:
//	    disabled: true
//
// Environment variables in the file are expanded. An empty path yields no overrides.
func LoadProviderOverrides(path string) (ProviderOverrides, error) {
	if strings.TrimSpace(path) == "" {
		return ProviderOverrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var parsed providersFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &parsed); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	out := make(ProviderOverrides, len(parsed.Providers))
	for name, o := range parsed.Providers {
		if o.MaxRetries != nil && *o.MaxRetries < 0 {
			return nil, fmt.Errorf("providers file: %s.max_retries must be >= 0", name)
		}
		out[strings.ToLower(strings.TrimSpace(name))] = o
	}
	return out, nil
}

// For returns the override for name, or the zero value.
func (o ProviderOverrides) For(name string) ProviderOverride {
	if o == nil {
		return ProviderOverride{}
	}
	return o[strings.ToLower(strings.TrimSpace(name))]
}
