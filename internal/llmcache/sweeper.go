package llmcache

import (
	"context"
	"time"

	"llm-service/internal/shared/metrics"
	"llm-service/internal/shared/telemetry"
)

// Sweeper periodically deletes expired entries so that stale rows with no
// further lookups do not accumulate.
type Sweeper struct {
	Store    Store
	Interval time.Duration
	Now      func() time.Time
}

// Run sweeps every Interval until ctx is done. It returns nil on cancellation.
func (s *Sweeper) Run(ctx context.Context) error {
	if s == nil || s.Store == nil || s.Interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	telemetry.Info("llm.cache.sweeper.start", map[string]any{
		"interval_ms": s.Interval.Milliseconds(),
	})
	for {
		select {
		case <-ctx.Done():
			telemetry.Info("llm.cache.sweeper.stop", nil)
			return nil
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single DeleteExpired pass.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	start := time.Now()
	removed, err := s.Store.DeleteExpired(ctx, now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			telemetry.Error("llm.cache.sweep_failed", map[string]any{"error": err.Error()})
		}
		return removed, err
	}
	metrics.AddCacheSwept(removed)
	if removed > 0 {
		telemetry.Info("llm.cache.swept", map[string]any{
			"removed":     removed,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
		})
	}
	return removed, nil
}
