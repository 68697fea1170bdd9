package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBodyBytes = 512

// Header is a single HTTP request header.
type Header struct {
	Key   string
	Value string
}

// DoJSON posts payload as JSON to url and returns the response body of a 2xx
// response. Transport failures and non-2xx statuses come back as
// *ProviderError; 429 and 5xx statuses and timeouts are marked retryable.
func DoJSON(ctx context.Context, client *http.Client, provider, url string, payload any, headers ...Header) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(provider, "marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, NewProviderError(provider, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, h := range headers {
		req.Header.Set(h.Key, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		retryable := !errors.Is(err, context.Canceled)
		msg := "request failed"
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			msg = "request timeout"
		}
		return nil, &ProviderError{Provider: provider, Msg: msg, Err: err, Retryable: retryable}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Msg: "read response", Err: err, Retryable: true}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider:  provider,
			Msg:       fmt.Sprintf("http status %d: %s", resp.StatusCode, errorExcerpt(body)),
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}
	return body, nil
}

// errorExcerpt pulls a readable message out of a provider error body.
func errorExcerpt(body []byte) string {
	var parsed struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(parsed.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
		var s string
		if err := json.Unmarshal(parsed.Error, &s); err == nil && s != "" {
			return s
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodyBytes {
		text = text[:maxErrorBodyBytes]
	}
	return text
}
