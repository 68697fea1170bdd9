package llmcache

import "time"

// Entry is one cached generation result.
type Entry struct {
	Key           string     `json:"key"`
	PromptText    string     `json:"promptText"`
	ProviderID    string     `json:"providerId"`
	GeneratedText string     `json:"generatedText"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// ValidAt reports whether the entry may be served at now. An entry whose
// expiry equals now is already stale; a nil expiry never expires.
func (e Entry) ValidAt(now time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// Precision is the timestamp resolution kept by every backend. Postgres
// timestamptz stores microseconds.
const Precision = time.Microsecond

// Normalize returns e with both timestamps in UTC and truncated to Precision,
// so an entry reads back identical from any backend.
func (e Entry) Normalize() Entry {
	e.CreatedAt = e.CreatedAt.UTC().Truncate(Precision)
	if e.ExpiresAt != nil {
		t := e.ExpiresAt.UTC().Truncate(Precision)
		e.ExpiresAt = &t
	}
	return e
}

// ExpiresIn returns a pointer to now+ttl, or nil when ttl is not positive.
func ExpiresIn(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl).UTC()
	return &t
}
