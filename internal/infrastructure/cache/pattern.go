package cache

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// compilePattern translates a `*` glob into an anchored regular expression.
// `*` matches any sequence of characters; everything else matches literally.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}

// redisMatchPattern renders a caller glob as a Redis MATCH argument. The
// contract grants `*` as the only wildcard, so Redis's extra metacharacters
// are escaped to match literally on the primary, exactly as they do in the
// fallback matcher.
func redisMatchPattern(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '?', '[', ']', '^', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// matcherCache memoizes compiled matchers so the invalidation paths do not
// rebuild the same expression on every call.
type matcherCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

func newMatcherCache() *matcherCache {
	return &matcherCache{compiled: make(map[string]*regexp.Regexp)}
}

func (m *matcherCache) compile(pattern string) (*regexp.Regexp, error) {
	m.mu.RLock()
	re, ok := m.compiled[pattern]
	m.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.compiled[pattern] = re
	m.mu.Unlock()
	return re, nil
}
