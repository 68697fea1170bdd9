package generation

import (
	"context"
	"sync"
	"time"

	"llm-service/internal/llm"
	"llm-service/internal/llmcache"
)

type fakeProvider struct {
	name   string
	lo, hi float64
	text   string
	tokens *int
	err    error

	mu     sync.Mutex
	calls  int
	inputs []llm.GenerateInput
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Generate(ctx context.Context, in llm.GenerateInput) (llm.GeneratedText, error) {
	p.mu.Lock()
	p.calls++
	p.inputs = append(p.inputs, in)
	p.mu.Unlock()
	if p.err != nil {
		return llm.GeneratedText{}, p.err
	}
	return llm.GeneratedText{Text: p.text, ProviderID: p.name, TokensGenerated: p.tokens}, nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type rangedProvider struct {
	*fakeProvider
}

func (p rangedProvider) TemperatureRange() (float64, float64) { return p.lo, p.hi }

type recordingStore struct {
	*llmcache.MemoryRepo

	mu          sync.Mutex
	lookups     int
	puts        []llmcache.Entry
	invalidated []string
	lookupErr   error
	putErr      error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryRepo: llmcache.NewMemoryRepo()}
}

func (s *recordingStore) Lookup(ctx context.Context, key string) (llmcache.Entry, error) {
	s.mu.Lock()
	s.lookups++
	err := s.lookupErr
	s.mu.Unlock()
	if err != nil {
		return llmcache.Entry{}, err
	}
	return s.MemoryRepo.Lookup(ctx, key)
}

func (s *recordingStore) Put(ctx context.Context, e llmcache.Entry) error {
	s.mu.Lock()
	s.puts = append(s.puts, e)
	err := s.putErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryRepo.Put(ctx, e)
}

func (s *recordingStore) Invalidate(ctx context.Context, key string) error {
	s.mu.Lock()
	s.invalidated = append(s.invalidated, key)
	s.mu.Unlock()
	return s.MemoryRepo.Invalidate(ctx, key)
}

func (s *recordingStore) accesses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups + len(s.puts) + len(s.invalidated)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store llmcache.Store, providers ...llm.Provider) *Service {
	return &Service{
		Registry: llm.NewRegistry("gemini", providers...),
		Cache:    store,
		Now:      func() time.Time { return fixedNow },
	}
}
