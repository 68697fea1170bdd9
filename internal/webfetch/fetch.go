// Package webfetch retrieves remote documents for text extraction.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxBytes  = 5 << 20
	DefaultUserAgent = "Mozilla/5.0 (compatible; llm-service/1.0)"
)

// Document is a fetched response body.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
	Truncated   bool
}

// Error describes why a fetch failed. StatusCode is set for non-2xx responses.
type Error struct {
	URL        string
	StatusCode int
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Msg, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher performs bounded GET requests.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64
}

// New returns a Fetcher with its own client and timeout.
func New(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: DefaultUserAgent,
		MaxBytes:  maxBytes,
	}
}

// Fetch GETs rawURL. Bodies larger than MaxBytes are truncated.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Document, error) {
	target, err := validateURL(rawURL)
	if err != nil {
		return Document{}, &Error{URL: rawURL, Msg: "invalid url", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Document{}, &Error{URL: rawURL, Msg: "invalid url", Err: err}
	}
	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,application/pdf;q=0.8,*/*;q=0.5")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		msg := "request failed"
		if isTimeout(err) {
			msg = "request timed out"
		}
		return Document{}, &Error{URL: rawURL, Msg: msg, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Document{}, &Error{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Msg:        fmt.Sprintf("status code %d", resp.StatusCode),
		}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		msg := "read body"
		if isTimeout(err) {
			msg = "request timed out"
		}
		return Document{}, &Error{URL: rawURL, Msg: msg, Err: err}
	}
	doc := Document{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if int64(len(body)) > limit {
		doc.Body = body[:limit]
		doc.Truncated = true
	}
	return doc, nil
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	return u.String(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
