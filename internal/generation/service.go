package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"llm-service/internal/llm"
	"llm-service/internal/llmcache"
	"llm-service/internal/shared/metrics"
	"llm-service/internal/shared/telemetry"
)

// Service answers generation requests, serving repeated requests from the cache.
type Service struct {
	Registry *llm.Registry
	// Cache may be nil, in which case every request goes to the provider.
	Cache llmcache.Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Generate validates req, consults the cache when requested, and otherwise
// calls the resolved provider and stores the fresh result.
// Cached results carry a nil TokensGenerated.
func (s *Service) Generate(ctx context.Context, req Request) (llm.GeneratedText, error) {
	metrics.IncGenerateRequests()

	if err := req.validate(); err != nil {
		return llm.GeneratedText{}, err
	}
	provider, name, err := s.Registry.Resolve(req.ProviderID)
	if err != nil {
		return llm.GeneratedText{}, err
	}
	if lo, hi := llm.TemperatureBounds(provider); req.Temperature < lo || req.Temperature > hi {
		return llm.GeneratedText{}, &ValidationError{
			Field: "temperature",
			Msg:   fmt.Sprintf("must be between %g and %g for %s", lo, hi, name),
		}
	}

	useCache := req.UseCache && s.Cache != nil
	var key string
	if useCache {
		key = llmcache.Derive(req.Prompt, name, req.MaxTokens, req.Temperature)
		if cached, ok := s.lookup(ctx, key, name); ok {
			return cached, nil
		}
	}

	start := time.Now()
	out, err := provider.Generate(ctx, llm.GenerateInput{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	metrics.ObserveProviderDuration(name, metrics.OpGenerate, time.Since(start))
	if err != nil {
		metrics.IncProviderErrors(name, metrics.OpGenerate)
		telemetry.Error("llm.provider.error", map[string]any{
			"provider": name,
			"error":    err.Error(),
		})
		return llm.GeneratedText{}, toProviderError(name, err)
	}
	if out.ProviderID == "" {
		out.ProviderID = name
	}

	if useCache {
		s.store(ctx, key, name, req, out.Text)
	}
	return out, nil
}

func (s *Service) lookup(ctx context.Context, key, provider string) (llm.GeneratedText, bool) {
	entry, err := s.Cache.Lookup(ctx, key)
	if err != nil {
		if !errors.Is(err, llmcache.ErrNotFound) {
			telemetry.Error("llm.cache.read_failed", map[string]any{
				"provider": provider,
				"key":      key,
				"error":    err.Error(),
			})
		}
		metrics.IncCacheMisses(provider)
		return llm.GeneratedText{}, false
	}
	if !entry.ValidAt(s.now()) {
		metrics.IncCacheExpired(provider)
		metrics.IncCacheMisses(provider)
		if err := s.Cache.Invalidate(ctx, key); err != nil {
			telemetry.Error("llm.cache.invalidate_failed", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		}
		return llm.GeneratedText{}, false
	}
	metrics.IncCacheHits(provider)
	telemetry.Info("llm.cache.hit", map[string]any{"provider": entry.ProviderID, "key": key})
	return llm.GeneratedText{
		Text:       entry.GeneratedText,
		ProviderID: entry.ProviderID,
	}, true
}

func (s *Service) store(ctx context.Context, key, provider string, req Request, text string) {
	now := s.now()
	entry := llmcache.Entry{
		Key:           key,
		PromptText:    req.Prompt,
		ProviderID:    provider,
		GeneratedText: text,
		CreatedAt:     now,
		ExpiresAt:     llmcache.ExpiresIn(now, time.Duration(req.CacheTTLMinutes)*time.Minute),
	}.Normalize()
	if err := s.Cache.Put(ctx, entry); err != nil {
		metrics.IncCacheWriteFailures(provider)
		telemetry.Error("llm.cache.write_failed", map[string]any{
			"provider": provider,
			"key":      key,
			"error":    err.Error(),
		})
	}
}

func toProviderError(provider string, err error) error {
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &llm.ProviderError{Provider: provider, Msg: "generation failed", Err: err}
}
