package userdata

import (
	"context"
	"strings"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	nextID  int64
	records []Record
	byEmail map[string]int64
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byEmail: make(map[string]int64), now: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, in CreateInput) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(in.Email)
	if _, ok := r.byEmail[email]; ok {
		return Record{}, ErrEmailTaken
	}
	r.nextID++
	rec := Record{
		ID:        r.nextID,
		Name:      in.Name,
		Email:     in.Email,
		IsActive:  in.IsActive,
		CreatedAt: r.now().UTC(),
	}
	r.records = append(r.records, rec)
	r.byEmail[email] = rec.ID
	return rec, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	// ids are assigned sequentially and never deleted.
	if id < 1 || id > int64(len(r.records)) {
		return Record{}, ErrNotFound
	}
	return r.records[id-1], nil
}

func (r *MemoryRepo) List(ctx context.Context, skip, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if skip >= len(r.records) {
		return []Record{}, nil
	}
	end := skip + limit
	if end > len(r.records) {
		end = len(r.records)
	}
	out := make([]Record, end-skip)
	copy(out, r.records[skip:end])
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
