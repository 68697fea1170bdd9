package userdata

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Create trims the input and stores a new record. Emails are unique
// case-insensitively.
func (s *Service) Create(ctx context.Context, in CreateInput) (Record, error) {
	if s == nil || s.Repo == nil {
		return Record{}, errors.New("user data service not configured")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return Record{}, &ValidationError{Field: "name", Msg: "required"}
	}
	if in.Email == "" {
		return Record{}, &ValidationError{Field: "email", Msg: "required"}
	}
	return s.Repo.Create(ctx, in)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Record, error) {
	if s == nil || s.Repo == nil {
		return Record{}, errors.New("user data service not configured")
	}
	if id < 1 {
		return Record{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List pages through records in id order. A zero limit returns an empty page
// and limits above MaxLimit are capped.
func (s *Service) List(ctx context.Context, skip, limit int) ([]Record, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("user data service not configured")
	}
	if skip < 0 {
		return nil, &ValidationError{Field: "skip", Msg: "must be >= 0"}
	}
	switch {
	case limit < 0:
		return nil, &ValidationError{Field: "limit", Msg: "must be >= 0"}
	case limit == 0:
		return []Record{}, nil
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return s.Repo.List(ctx, skip, limit)
}
