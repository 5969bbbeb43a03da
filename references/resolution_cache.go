package references

import (
	"os"
	"sync"
	"sync/atomic"
)

// RefCacheKey represents a unique key for caching reference resolution results
type RefCacheKey struct {
	RefURI        string
	Mode          RelativeURIResolutionMode
	BaseURI       string
	BaseDirectory string
}

// RefCache provides a thread-safe cache for reference resolution results
type RefCache struct {
	cache sync.Map // map[RefCacheKey]*AbsoluteReferenceResult
	size  atomic.Int64
}

var globalRefCache = &RefCache{}

// Resolve returns a copy of the cached result for (ref, opts), resolving and storing it on first use.
// Failures are not cached. An empty BaseDirectory is replaced by the working directory before the
// key is built, so entries never outlive a change of directory.
func (c *RefCache) Resolve(ref Reference, opts ResolveOptions) (*AbsoluteReferenceResult, error) {
	if opts.Mode == ConvertToRelativeFilePath && opts.BaseDirectory == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.BaseDirectory = wd
	}

	key := RefCacheKey{
		RefURI:        ref.GetURI(),
		Mode:          opts.Mode,
		BaseURI:       opts.BaseURI,
		BaseDirectory: opts.BaseDirectory,
	}

	if cached, ok := c.cache.Load(key); ok {
		cachedResult := cached.(*AbsoluteReferenceResult)
		return &AbsoluteReferenceResult{
			AbsoluteReference: cachedResult.AbsoluteReference,
			Classification:    cachedResult.Classification, // read-only, safe to share
		}, nil
	}

	result, err := resolveAbsoluteReferenceUncached(ref, opts)
	if err != nil {
		return nil, err
	}

	if _, loaded := c.cache.LoadOrStore(key, result); !loaded {
		c.size.Add(1)
	}

	return &AbsoluteReferenceResult{
		AbsoluteReference: result.AbsoluteReference,
		Classification:    result.Classification,
	}, nil
}

// Clear clears all cached reference resolutions.
func (c *RefCache) Clear() {
	c.cache.Range(func(key, _ any) bool {
		c.cache.Delete(key)
		return true
	})
	c.size.Store(0)
}

// RefCacheStats contains basic statistics about the cache
type RefCacheStats struct {
	Size int64
}

// GetStats returns statistics about the cache
func (c *RefCache) GetStats() RefCacheStats {
	return RefCacheStats{Size: c.size.Load()}
}

// GetRefCacheStats returns statistics about the global reference cache
func GetRefCacheStats() RefCacheStats {
	return globalRefCache.GetStats()
}

// ClearGlobalRefCache clears the global reference cache
func ClearGlobalRefCache() {
	globalRefCache.Clear()
}
