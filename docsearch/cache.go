package docsearch

import (
	"sync"
	"time"
)

// DefaultTTL is how long an indexed document stays cached.
const DefaultTTL = 24 * time.Hour

// DocumentCache holds chunked documents keyed by conversation and URL so a
// document is split once per conversation, not once per question. Entries
// expire after the TTL; expired entries are dropped lazily on access.
type DocumentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	chunks  []string
	expires time.Time
}

// NewDocumentCache creates a cache with the given TTL; zero means DefaultTTL.
func NewDocumentCache(ttl time.Duration) *DocumentCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DocumentCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached chunks for key, or false on miss or expiry.
func (c *DocumentCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.chunks, true
}

// Set stores chunks under key with a fresh TTL.
func (c *DocumentCache) Set(key string, chunks []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{chunks: chunks, expires: c.now().Add(c.ttl)}
}
