package cache

import (
	"regexp"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// fallbackEntry is a locally cached value with its absolute expiry.
// A zero expiry means the entry does not expire.
type fallbackEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e fallbackEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// fallbackStore is the in-process backend serving reads and writes while the
// primary is unreachable. It is bounded: once maxEntries is reached the least
// recently used entry is evicted. All methods are safe for concurrent use;
// the store never performs I/O.
type fallbackStore struct {
	entries *lru.Cache[string, fallbackEntry]
}

func newFallbackStore(maxEntries int) (*fallbackStore, error) {
	entries, err := lru.New[string, fallbackEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &fallbackStore{entries: entries}, nil
}

// get returns the stored bytes if present and not expired. Expired entries
// are purged on access.
func (s *fallbackStore) get(key string, now time.Time) ([]byte, bool) {
	e, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		s.entries.Remove(key)
		return nil, false
	}
	return e.value, true
}

// set stores value with expiry now+ttl. A non-positive ttl stores the value
// without expiry, mirroring the primary backend's semantics.
func (s *fallbackStore) set(key string, value []byte, ttl time.Duration, now time.Time) {
	e := fallbackEntry{value: value}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	s.entries.Add(key, e)
}

func (s *fallbackStore) remove(key string) {
	s.entries.Remove(key)
}

// removePattern deletes every key matching re and returns how many were
// removed.
func (s *fallbackStore) removePattern(re *regexp.Regexp) int {
	removed := 0
	for _, key := range s.entries.Keys() {
		if re.MatchString(key) && s.entries.Remove(key) {
			removed++
		}
	}
	return removed
}

// sweepExpired drops every entry whose TTL has lapsed and returns how many
// were dropped. Peek is used so the sweep does not disturb recency order.
func (s *fallbackStore) sweepExpired(now time.Time) int {
	swept := 0
	for _, key := range s.entries.Keys() {
		if e, ok := s.entries.Peek(key); ok && e.expired(now) && s.entries.Remove(key) {
			swept++
		}
	}
	return swept
}

func (s *fallbackStore) len() int {
	return s.entries.Len()
}

func (s *fallbackStore) purge() {
	s.entries.Purge()
}
