package llmcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createSQLiteCacheTable = `
CREATE TABLE IF NOT EXISTS llm_cache (
	prompt_hash TEXT PRIMARY KEY,
	prompt_text TEXT NOT NULL,
	llm_provider TEXT NOT NULL,
	generated_text TEXT NOT NULL,
	cached_at_ns INTEGER NOT NULL,
	expires_at_ns INTEGER
);
CREATE INDEX IF NOT EXISTS idx_llm_cache_expires_at ON llm_cache (expires_at_ns);
`

// SQLiteRepo stores entries in a local SQLite file. Timestamps are kept as
// unix nanoseconds so that round trips are exact.
type SQLiteRepo struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the cache database at path.
func OpenSQLite(path string) (*SQLiteRepo, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createSQLiteCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Lookup(ctx context.Context, key string) (Entry, error) {
	var entry Entry
	var cachedAt int64
	var expiresAt sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT prompt_hash, prompt_text, llm_provider, generated_text, cached_at_ns, expires_at_ns FROM llm_cache WHERE prompt_hash = ?`,
		key,
	).Scan(&entry.Key, &entry.PromptText, &entry.ProviderID, &entry.GeneratedText, &cachedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("cache lookup: %w", err)
	}
	entry.CreatedAt = time.Unix(0, cachedAt).UTC()
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64).UTC()
		entry.ExpiresAt = &t
	}
	return entry, nil
}

func (r *SQLiteRepo) Put(ctx context.Context, entry Entry) error {
	entry = entry.Normalize()
	var expires any
	if entry.ExpiresAt != nil {
		expires = entry.ExpiresAt.UnixNano()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO llm_cache (prompt_hash, prompt_text, llm_provider, generated_text, cached_at_ns, expires_at_ns)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Key, entry.PromptText, entry.ProviderID, entry.GeneratedText, entry.CreatedAt.UnixNano(), expires,
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Invalidate(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM llm_cache WHERE prompt_hash = ?`, key); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM llm_cache WHERE expires_at_ns IS NOT NULL AND expires_at_ns <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the database connection.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

var _ Store = (*SQLiteRepo)(nil)
