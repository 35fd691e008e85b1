package pubcontent

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedResponse is a fully rendered response body.
type CachedResponse struct {
	ContentType string
	Body        []byte
}

// ResponseCache is an in-memory cache of rendered responses with TTL, keyed by
// request URI. A nil *ResponseCache is a disabled cache.
type ResponseCache struct {
	lru *expirable.LRU[string, CachedResponse]
}

// NewResponseCache creates a cache holding up to size entries for ttl.
// A negative ttl disables caching and returns nil.
func NewResponseCache(size int, ttl time.Duration) *ResponseCache {
	if ttl < 0 || size <= 0 {
		return nil
	}
	return &ResponseCache{lru: expirable.NewLRU[string, CachedResponse](size, nil, ttl)}
}

// Get returns the cached response for key.
func (c *ResponseCache) Get(key string) (CachedResponse, bool) {
	if c == nil {
		return CachedResponse{}, false
	}
	return c.lru.Get(key)
}

// Add stores a response under key.
func (c *ResponseCache) Add(key string, r CachedResponse) {
	if c == nil {
		return
	}
	c.lru.Add(key, r)
}

// Invalidate clears the cache so the next read renders fresh responses.
func (c *ResponseCache) Invalidate() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// Len returns the number of cached responses.
func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
