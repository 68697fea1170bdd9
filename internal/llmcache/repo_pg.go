package llmcache

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Lookup(ctx context.Context, key string) (Entry, error) {
	const query = `
SELECT prompt_hash, prompt_text, llm_provider, generated_text, cached_at, expires_at
FROM llm_cache
WHERE prompt_hash = $1
LIMIT 1`
	var entry Entry
	var expiresAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, key).Scan(
		&entry.Key,
		&entry.PromptText,
		&entry.ProviderID,
		&entry.GeneratedText,
		&entry.CreatedAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		entry.ExpiresAt = &t
	}
	return entry, nil
}

func (r *PGRepo) Put(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO llm_cache (prompt_hash, prompt_text, llm_provider, generated_text, cached_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (prompt_hash) DO UPDATE SET
  prompt_text = EXCLUDED.prompt_text,
  llm_provider = EXCLUDED.llm_provider,
  generated_text = EXCLUDED.generated_text,
  cached_at = EXCLUDED.cached_at,
  expires_at = EXCLUDED.expires_at`
	entry = entry.Normalize()
	_, err := r.DB.ExecContext(ctx, query,
		entry.Key,
		entry.PromptText,
		entry.ProviderID,
		entry.GeneratedText,
		entry.CreatedAt,
		nullableTime(entry.ExpiresAt),
	)
	return err
}

func (r *PGRepo) Invalidate(ctx context.Context, key string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM llm_cache WHERE prompt_hash = $1`, key)
	return err
}

func (r *PGRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM llm_cache WHERE expires_at IS NOT NULL AND expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

var _ Store = (*PGRepo)(nil)
