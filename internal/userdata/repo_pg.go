package userdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, in CreateInput) (Record, error) {
	const query = `
INSERT INTO user_data (name, email, is_active, created_at)
VALUES ($1, $2, $3, now())
RETURNING id, name, email, is_active, created_at`
	var rec Record
	err := r.DB.QueryRowContext(ctx, query, in.Name, in.Email, in.IsActive).Scan(
		&rec.ID,
		&rec.Name,
		&rec.Email,
		&rec.IsActive,
		&rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Record{}, ErrEmailTaken
		}
		return Record{}, fmt.Errorf("insert user data: %w", err)
	}
	return rec, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	const query = `
SELECT id, name, email, is_active, created_at
FROM user_data
WHERE id = $1
LIMIT 1`
	var rec Record
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Name,
		&rec.Email,
		&rec.IsActive,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get user data: %w", err)
	}
	return rec, nil
}

func (r *PGRepo) List(ctx context.Context, skip, limit int) ([]Record, error) {
	const query = `
SELECT id, name, email, is_active, created_at
FROM user_data
ORDER BY id
OFFSET $1 LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list user data: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.IsActive, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user data: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user data: %w", err)
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
