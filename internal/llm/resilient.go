package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"llm-service/internal/shared/telemetry"
)

// ResilienceOptions configures retry and circuit breaking around a provider.
type ResilienceOptions struct {
	MaxRetries       uint64
	InitialInterval  time.Duration
	MaxInterval      time.Duration
	CallTimeout      time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultResilienceOptions returns the defaults used by the API server.
func DefaultResilienceOptions() ResilienceOptions {
	return ResilienceOptions{
		MaxRetries:       2,
		InitialInterval:  300 * time.Millisecond,
		MaxInterval:      3 * time.Second,
		CallTimeout:      60 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

type resilientProvider struct {
	inner   Provider
	opts    ResilienceOptions
	breaker *gobreaker.CircuitBreaker
}

type resilientParser struct {
	*resilientProvider
	parser StructuredParser
}

// Resilient decorates p with per-call timeouts, exponential retry of
// retryable ProviderErrors and a circuit breaker. The StructuredParser
// capability of p is preserved.
func Resilient(p Provider, opts ResilienceOptions) Provider {
	if p == nil {
		return nil
	}
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	rp := &resilientProvider{
		inner: p,
		opts:  opts,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        p.Name(),
			MaxRequests: 1,
			Timeout:     opts.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				telemetry.Info("llm.provider.breaker", map[string]any{
					"provider": name,
					"from":     from.String(),
					"to":       to.String(),
				})
			},
			IsSuccessful: breakerSuccess,
		}),
	}
	if sp, ok := p.(StructuredParser); ok {
		return &resilientParser{resilientProvider: rp, parser: sp}
	}
	return rp
}

func (r *resilientProvider) Name() string { return r.inner.Name() }

func (r *resilientProvider) TemperatureRange() (float64, float64) {
	return TemperatureBounds(r.inner)
}

func (r *resilientProvider) Generate(ctx context.Context, input GenerateInput) (GeneratedText, error) {
	var out GeneratedText
	err := r.call(ctx, "generate", func(callCtx context.Context) error {
		res, err := r.inner.Generate(callCtx, input)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (r *resilientParser) ParseStructured(ctx context.Context, text string) (JobPosting, error) {
	var out JobPosting
	err := r.call(ctx, "parse_structured", func(callCtx context.Context) error {
		res, err := r.parser.ParseStructured(callCtx, text)
		out = res
		return err
	})
	return out, err
}

func (r *resilientProvider) call(ctx context.Context, op string, fn func(context.Context) error) error {
	name := r.inner.Name()
	attempt := func() error {
		_, err := r.breaker.Execute(func() (interface{}, error) {
			callCtx := ctx
			if r.opts.CallTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, r.opts.CallTimeout)
				defer cancel()
			}
			return nil, fn(callCtx)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(&ProviderError{Provider: name, Msg: "circuit open", Err: err})
		}
		if IsRetryable(err) && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	if r.opts.InitialInterval > 0 {
		policy.InitialInterval = r.opts.InitialInterval
	}
	if r.opts.MaxInterval > 0 {
		policy.MaxInterval = r.opts.MaxInterval
	}
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		telemetry.Info("llm.provider.retry", map[string]any{
			"provider": name,
			"op":       op,
			"wait_ms":  wait.Milliseconds(),
			"error":    err.Error(),
		})
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, r.opts.MaxRetries), ctx), notify)
	if err == nil {
		return nil
	}
	return AsProviderError(name, err)
}

// breakerSuccess keeps caller-side outcomes from tripping the breaker.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var me *MalformedOutputError
	return errors.As(err, &me)
}

var (
	_ Provider         = (*resilientProvider)(nil)
	_ StructuredParser = (*resilientParser)(nil)
)
