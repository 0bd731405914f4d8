package client

import (
	"strings"
	"sync"
	"time"
)

// QueryKey identifies one cached query, e.g. {"ui-components", id}
type QueryKey []string

func (k QueryKey) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether k starts with every element of prefix
func (k QueryKey) HasPrefix(prefix QueryKey) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

type queryEntry struct {
	key     QueryKey
	value   any
	fetched time.Time
}

// QueryCache holds query results for a fixed stale time.
// A zero stale time caches nothing.
type QueryCache struct {
	mu       sync.Mutex
	staleFor time.Duration
	entries  map[string]queryEntry
	now      func() time.Time
}

// NewQueryCache creates a cache serving entries for staleFor
func NewQueryCache(staleFor time.Duration) *QueryCache {
	return &QueryCache{
		staleFor: staleFor,
		entries:  make(map[string]queryEntry),
		now:      time.Now,
	}
}

// Get returns a fresh cached value for key
func (q *QueryCache) Get(key QueryKey) (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[key.String()]
	if !ok {
		return nil, false
	}
	if q.now().Sub(e.fetched) >= q.staleFor {
		delete(q.entries, key.String())
		return nil, false
	}
	return e.value, true
}

// Set stores value under key
func (q *QueryCache) Set(key QueryKey, value any) {
	if q.staleFor <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[key.String()] = queryEntry{key: key, value: value, fetched: q.now()}
}

// Invalidate drops the exact keys given
func (q *QueryCache) Invalidate(keys ...QueryKey) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, k := range keys {
		delete(q.entries, k.String())
	}
}

// InvalidatePrefix drops every key starting with prefix
func (q *QueryCache) InvalidatePrefix(prefix QueryKey) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for s, e := range q.entries {
		if e.key.HasPrefix(prefix) {
			delete(q.entries, s)
		}
	}
}

// InvalidateWhere drops every entry whose value matches
func (q *QueryCache) InvalidateWhere(match func(any) bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for s, e := range q.entries {
		if match(e.value) {
			delete(q.entries, s)
		}
	}
}

// Len is the number of stored entries, fresh or not
func (q *QueryCache) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
