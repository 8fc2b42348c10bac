package contentforge

import (
	"context"
	"strings"
	"sync"
	"time"
)

// queryCache holds the last fetched value per resource key. Responses are
// applied by logical sequence number: a slow request completing after a newer
// one was issued for the same key is discarded rather than overwriting
// fresher data.
type queryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	// seq is the sequence number of the most recent request issued for
	// this key. Only a response carrying this number may be committed.
	seq       uint64
	value     interface{}
	fetchedAt time.Time
	hasValue  bool
}

func newQueryCache() *queryCache {
	return &queryCache{entries: make(map[string]*cacheEntry)}
}

// fresh returns the cached value if it was fetched within staleAfter.
func (c *queryCache) fresh(key string, staleAfter time.Duration) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	if staleAfter <= 0 || time.Since(e.fetchedAt) > staleAfter {
		return nil, false
	}
	return e.value, true
}

// begin registers a new in-flight request for key and returns its sequence
// number.
func (c *queryCache) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	e.seq++
	return e.seq
}

// commit applies a response if and only if its originating request is still
// the most recent one issued for the key. Returns false when the response
// was discarded as stale.
func (c *queryCache) commit(key string, seq uint64, value interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.seq != seq {
		return false
	}
	e.value = value
	e.fetchedAt = time.Now()
	e.hasValue = true
	return true
}

// invalidate drops cached values so the next read refetches. In-flight
// requests begun before the invalidation are also discarded on arrival.
func (c *queryCache) invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.value = nil
			e.hasValue = false
			e.seq++
		}
	}
}

// invalidatePrefix drops every key sharing a prefix, e.g. all article lists
// regardless of their limit parameter.
func (c *queryCache) invalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			e.value = nil
			e.hasValue = false
			e.seq++
		}
	}
}

// invalidateAll drops every cached value. Used on logout.
func (c *queryCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		e.value = nil
		e.hasValue = false
		e.seq++
	}
}

// cachedFetch is the read-through path every list/detail query uses: serve a
// fresh cached value, otherwise fetch and commit under the key's sequence
// discipline.
func cachedFetch[T any](ctx context.Context, c *Client, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.cache.fresh(key, c.staleTime); ok {
		return v.(T), nil
	}

	var zero T
	seq := c.cache.begin(key)

	v, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	c.cache.commit(key, seq, v)
	return v, nil
}
