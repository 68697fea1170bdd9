// Package jobparse turns a job-posting URL into a structured record.
package jobparse

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"llm-service/internal/extract"
	"llm-service/internal/llm"
	"llm-service/internal/shared/metrics"
	"llm-service/internal/shared/storage/object"
	"llm-service/internal/shared/telemetry"
	"llm-service/internal/webfetch"
)

// Fetcher retrieves a remote document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (webfetch.Document, error)
}

// Service fetches a posting, extracts its text and asks a provider to parse it.
type Service struct {
	Registry *llm.Registry
	Fetcher  Fetcher
	// Snapshots is optional. When set, every fetched body is stored before extraction.
	Snapshots object.ObjectStore
}

// ExtractStructured resolves providerID, fetches url and returns the parsed
// posting. Results are never cached.
func (s *Service) ExtractStructured(ctx context.Context, url, providerID string) (llm.JobPosting, error) {
	metrics.IncJobParseRequests()
	out, err := s.extractStructured(ctx, url, providerID)
	if err != nil {
		metrics.IncJobParseFailures()
	}
	return out, err
}

func (s *Service) extractStructured(ctx context.Context, url, providerID string) (llm.JobPosting, error) {
	provider, name, err := s.Registry.Resolve(providerID)
	if err != nil {
		return llm.JobPosting{}, err
	}
	parser, ok := llm.AsStructuredParser(provider)
	if !ok {
		return llm.JobPosting{}, &llm.UnsupportedOperationError{Provider: name, Operation: "structured parsing"}
	}

	doc, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		telemetry.Warn("jobparse.fetch_failed", map[string]any{
			"url":   url,
			"error": err.Error(),
		})
		return llm.JobPosting{}, fetchError(url, err)
	}
	if doc.Truncated {
		telemetry.Warn("jobparse.body_truncated", map[string]any{
			"url":   url,
			"bytes": len(doc.Body),
		})
	}
	s.snapshot(ctx, url, doc)

	text, err := extract.Text(ctx, doc.Body, doc.ContentType, url)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			return llm.JobPosting{}, &ContentFetchError{URL: url, Msg: "no meaningful text", Err: err}
		}
		return llm.JobPosting{}, &ContentFetchError{URL: url, Msg: "extract text", Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return llm.JobPosting{}, &ContentFetchError{URL: url, Msg: "no meaningful text"}
	}

	start := time.Now()
	posting, err := parser.ParseStructured(ctx, text)
	metrics.ObserveProviderDuration(name, metrics.OpParse, time.Since(start))
	if err != nil {
		metrics.IncProviderErrors(name, metrics.OpParse)
		telemetry.Error("jobparse.parse_failed", map[string]any{
			"provider": name,
			"url":      url,
			"error":    err.Error(),
		})
		return llm.JobPosting{}, llm.AsProviderError(name, err)
	}
	if posting.ParsedByProvider == "" {
		posting.ParsedByProvider = name
	}
	telemetry.Info("jobparse.parsed", map[string]any{
		"provider":   name,
		"url":        url,
		"text_chars": len(text),
	})
	return posting, nil
}

func (s *Service) snapshot(ctx context.Context, url string, doc webfetch.Document) {
	if s.Snapshots == nil {
		return
	}
	key := object.SnapshotKey(url, doc.ContentType)
	if _, err := s.Snapshots.Put(ctx, key, doc.ContentType, bytes.NewReader(doc.Body)); err != nil {
		telemetry.Warn("jobparse.snapshot_failed", map[string]any{
			"url":   url,
			"key":   key,
			"error": err.Error(),
		})
	}
}

func fetchError(url string, err error) error {
	var fe *webfetch.Error
	if errors.As(err, &fe) {
		return &ContentFetchError{URL: url, Msg: fe.Msg, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ContentFetchError{URL: url, Msg: "request timed out", Err: err}
	}
	return &ContentFetchError{URL: url, Msg: "request failed", Err: err}
}
