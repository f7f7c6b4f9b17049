package ports

import (
	"context"
	"encoding/json"
	"time"
)

// Producer loads a value from the origin when the cache cannot serve it.
type Producer func(ctx context.Context) (any, error)

// Cache defines the read-through cache contract used by the caching
// repositories and the invalidation worker. Implementations must degrade
// gracefully: backend trouble surfaces as a miss or a skipped write, never
// as an error to the caller. Only producer failures and malformed patterns
// propagate.
type Cache interface {
	// Get returns the raw bytes for key. ok=false on miss, expiry, or any
	// backend failure.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key with the given TTL, best-effort.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes the key from every backend; absence is not an error.
	Delete(ctx context.Context, key string)
	// DeletePattern removes all keys matching the glob pattern, where `*`
	// matches any sequence of characters and the pattern must cover the
	// whole key. An invalid pattern returns an error.
	DeletePattern(ctx context.Context, pattern string) error
	// GetOrSet returns the cached bytes for key, or invokes producer on a
	// miss, caches the marshaled result best-effort and returns it.
	// Producer errors propagate unchanged.
	GetOrSet(ctx context.Context, key string, producer Producer, ttl time.Duration) (json.RawMessage, error)
	// Connected reports whether the primary backend is currently usable.
	Connected() bool
	// Close stops background monitoring and releases the fallback store.
	Close() error
}
