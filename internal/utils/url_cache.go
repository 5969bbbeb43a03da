package utils

import (
	"net/url"
	"sync"
	"sync/atomic"
)

// URLCache provides a thread-safe cache for parsed URLs to avoid repeated parsing
type URLCache struct {
	cache sync.Map // map[string]*url.URL
	size  atomic.Int64
}

var globalURLCache = &URLCache{}

// ParseURLCached parses a URL string using the global cache.
// Bundling and resolution classify the same base locations over and over.
func ParseURLCached(rawURL string) (*url.URL, error) {
	return globalURLCache.Parse(rawURL)
}

// Parse returns a copy of the cached parse result, parsing and storing it on first use.
func (c *URLCache) Parse(rawURL string) (*url.URL, error) {
	if cached, ok := c.cache.Load(rawURL); ok {
		urlCopy := *cached.(*url.URL)
		return &urlCopy, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	urlCopy := *parsed
	if _, loaded := c.cache.LoadOrStore(rawURL, &urlCopy); !loaded {
		c.size.Add(1)
	}

	return parsed, nil
}

// Clear clears all cached URLs.
func (c *URLCache) Clear() {
	c.cache.Range(func(key, _ any) bool {
		c.cache.Delete(key)
		return true
	})
	c.size.Store(0)
}

// URLCacheStats contains basic statistics about the cache
type URLCacheStats struct {
	Size int64
}

// Stats returns basic statistics about the cache
func (c *URLCache) Stats() URLCacheStats {
	return URLCacheStats{Size: c.size.Load()}
}

// ClearGlobalURLCache clears the global URL parsing cache.
func ClearGlobalURLCache() {
	globalURLCache.Clear()
}

// GetURLCacheStats returns statistics about the global URL cache.
func GetURLCacheStats() URLCacheStats {
	return globalURLCache.Stats()
}
