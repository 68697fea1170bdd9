package llmcache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingStore struct {
	*MemoryRepo
	sweeps atomic.Int32
	err    error
}

func (s *countingStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.sweeps.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return s.MemoryRepo.DeleteExpired(ctx, now)
}

func TestSweeperSweepOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepo()
	past := now.Add(-time.Minute)
	_ = repo.Put(ctx, sampleEntry("stale", &past))
	_ = repo.Put(ctx, sampleEntry("forever", nil))

	s := &Sweeper{Store: repo, Interval: time.Minute, Now: func() time.Time { return now }}
	removed, err := s.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if removed != 1 || repo.Len() != 1 {
		t.Fatalf("expected 1 removed, got %d (len %d)", removed, repo.Len())
	}
}

func TestSweeperSweepOnceError(t *testing.T) {
	store := &countingStore{MemoryRepo: NewMemoryRepo(), err: errors.New("db down")}
	s := &Sweeper{Store: store, Interval: time.Minute}
	if _, err := s.SweepOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	store := &countingStore{MemoryRepo: NewMemoryRepo()}
	s := &Sweeper{Store: store, Interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for store.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeper did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sweeper did not stop")
	}
}

func TestSweeperDisabled(t *testing.T) {
	s := &Sweeper{Store: NewMemoryRepo()}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("expected immediate nil return, got %v", err)
	}
}
