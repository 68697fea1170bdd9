package llm

import (
	"context"
	"errors"
	"fmt"
)

// InvalidProviderError is returned when a provider id is unknown or not configured.
type InvalidProviderError struct {
	Name string
}

func (e *InvalidProviderError) Error() string {
	return fmt.Sprintf("invalid llm provider: %q", e.Name)
}

// ProviderError normalizes every backend failure: transport errors, non-2xx
// responses, safety blocks and empty content. The backend error is kept in Err
// for logs, but errors.Is/As only see through to context cancellation and
// deadline errors; SDK and transport types stay behind this boundary.
type ProviderError struct {
	Provider  string
	Msg       string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider error: %s: %v", e.Provider, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Msg)
}

// Unwrap exposes only context.Canceled and context.DeadlineExceeded.
func (e *ProviderError) Unwrap() error {
	switch {
	case errors.Is(e.Err, context.Canceled):
		return context.Canceled
	case errors.Is(e.Err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	}
	return nil
}

// Cause returns the backend error for logging.
func (e *ProviderError) Cause() error { return e.Err }

// MalformedOutputError is returned when the backend answered but its output
// could not be decoded into the expected structure. Raw holds the unmodified output.
type MalformedOutputError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s returned malformed structured output: %v", e.Provider, e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// UnsupportedOperationError is returned when a provider lacks a requested capability.
type UnsupportedOperationError struct {
	Provider  string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("provider %q does not support %s", e.Provider, e.Operation)
}

// NewProviderError builds a non-retryable ProviderError.
func NewProviderError(provider, msg string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Msg: msg, Err: err}
}

// AsProviderError wraps err in a ProviderError unless it already is one
// (or a MalformedOutputError, which is kept distinct).
func AsProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	var me *MalformedOutputError
	if errors.As(err, &me) {
		return err
	}
	return &ProviderError{Provider: provider, Msg: "generation failed", Err: err}
}

// IsRetryable reports whether err is a ProviderError marked retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
