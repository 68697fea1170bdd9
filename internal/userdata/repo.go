package userdata

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("user data not found")
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Repo persists user data records.
type Repo interface {
	Create(ctx context.Context, in CreateInput) (Record, error)
	GetByID(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context, skip, limit int) ([]Record, error)
}
