package tagoreq

import (
	"context"
	"sync"
	"time"
)

// Cache stores unwrapped results by fingerprint. An entry is visible only
// until its expiry; entries are never updated in place.
type Cache interface {
	Get(key Fingerprint) (any, bool)
	Set(key Fingerprint, value any, ttl time.Duration)
	Delete(key Fingerprint)
	// Sweep drops every expired entry.
	Sweep()
	Clear()
	Len() int
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryCache is the in-process Cache. Expired entries are purged lazily
// before every read and write.
type MemoryCache struct {
	mu    sync.Mutex
	store map[Fingerprint]cacheEntry
	now   func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		store: make(map[Fingerprint]cacheEntry),
		now:   time.Now,
	}
}

// Get returns a copy of the cached value, so callers may modify what they
// receive without affecting later hits.
func (c *MemoryCache) Get(key Fingerprint) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	entry, ok := c.store[key]
	if !ok {
		return nil, false
	}
	return cloneValue(entry.value), true
}

// Set stores a copy of value for ttl. Non-positive TTLs store nothing.
func (c *MemoryCache) Set(key Fingerprint, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	if ttl <= 0 {
		return
	}
	c.store[key] = cacheEntry{value: cloneValue(value), expiresAt: c.now().Add(ttl)}
}

func (c *MemoryCache) Delete(key Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.store, key)
}

func (c *MemoryCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[Fingerprint]cacheEntry)
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	return len(c.store)
}

func (c *MemoryCache) sweepLocked() {
	now := c.now()
	for key, entry := range c.store {
		if !now.Before(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}

// WithCacheTTL returns a context asking Client.Do to cache the result for
// ttl. A zero or negative ttl disables caching and in-flight coalescing.
func WithCacheTTL(ctx context.Context, ttl time.Duration) context.Context {
	return context.WithValue(ctx, CacheControlKey, &CacheControl{TTL: ttl})
}

func cacheTTLFromContext(ctx context.Context) time.Duration {
	if cc, ok := ctx.Value(CacheControlKey).(*CacheControl); ok && cc != nil {
		return cc.TTL
	}
	return 0
}

// cloneValue deep-copies the JSON shapes a result can take. Other values
// are returned as they are.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = cloneValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = cloneValue(elem)
		}
		return out
	}
	return v
}
