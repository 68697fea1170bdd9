package llmcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "llmcache:"
	redisScanCount     = 200
)

// RedisRepo stores entries as JSON values. Entries with an expiry also get a
// native Redis TTL, so Redis reclaims them without a sweep.
type RedisRepo struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRepo wraps an existing client. An empty prefix uses "llmcache:".
func NewRedisRepo(client *redis.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRepo{client: client, prefix: prefix, now: time.Now}
}

// OpenRedis parses a redis:// URL, connects and verifies connectivity.
func OpenRedis(ctx context.Context, url, prefix string) (*RedisRepo, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisRepo(client, prefix), nil
}

func (r *RedisRepo) Lookup(ctx context.Context, key string) (Entry, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("redis get: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("redis decode entry: %w", err)
	}
	return entry, nil
}

func (r *RedisRepo) Put(ctx context.Context, entry Entry) error {
	entry = entry.Normalize()
	var ttl time.Duration
	if entry.ExpiresAt != nil {
		ttl = entry.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			return r.Invalidate(ctx, entry.Key)
		}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis encode entry: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+entry.Key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisRepo) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteExpired scans the prefix and removes entries that are stale at now but
// whose native TTL has not fired yet.
func (r *RedisRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", redisScanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range keys {
			data, err := r.client.Get(ctx, k).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return removed, fmt.Errorf("redis get: %w", err)
			}
			var entry Entry
			if err := json.Unmarshal(data, &entry); err != nil {
				continue
			}
			if entry.ValidAt(now) {
				continue
			}
			n, err := r.client.Del(ctx, k).Result()
			if err != nil {
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Ping checks connectivity.
func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisRepo) Close() error {
	return r.client.Close()
}

var _ Store = (*RedisRepo)(nil)
