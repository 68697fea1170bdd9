package userdata

import "time"

// Record is a stored user data row.
type Record struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateInput holds the fields accepted when creating a record.
type CreateInput struct {
	Name     string
	Email    string
	IsActive bool
}

const (
	DefaultLimit = 100
	MaxLimit     = 500
)
