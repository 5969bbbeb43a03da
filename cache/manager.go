// Package cache manages the process wide caches shared by the decoders and resolvers.
package cache

import (
	"github.com/speakeasy-api/serverlessworkflow/discriminator"
	"github.com/speakeasy-api/serverlessworkflow/internal/utils"
	"github.com/speakeasy-api/serverlessworkflow/marshaller"
	"github.com/speakeasy-api/serverlessworkflow/references"
)

// ClearAllCaches clears all global caches in the system.
// This includes:
// - URL parsing cache (internal/utils)
// - Reference resolution cache (references)
// - Field mapping cache (marshaller)
// - Discriminator binding cache (discriminator.DefaultCache)
//
// This function is thread-safe and can be called from multiple goroutines.
// Caches are rebuilt on demand, so clearing never changes decoding results.
func ClearAllCaches() {
	ClearURLCache()
	ClearReferenceCache()
	ClearFieldCache()
	ClearBindingCache()
}

// ClearURLCache clears the global URL parsing cache.
func ClearURLCache() {
	utils.ClearGlobalURLCache()
}

// ClearReferenceCache clears the global cache of resolved absolute reference locations.
func ClearReferenceCache() {
	references.ClearGlobalRefCache()
}

// ClearFieldCache clears the global field mapping cache.
// This cache stores pre-computed field maps for struct types to avoid
// expensive reflection operations during unmarshalling.
func ClearFieldCache() {
	marshaller.ClearGlobalFieldCache()
}

// ClearBindingCache drops the discriminator bindings memoized by the default cache.
// Declarations in the default universe are kept.
func ClearBindingCache() {
	discriminator.DefaultCache().Clear()
}

// CacheStats holds the number of entries in each global cache.
type CacheStats struct {
	URLCacheSize       int64
	ReferenceCacheSize int64
	FieldCacheSize     int64
	BindingCacheSize   int64
}

// GetAllCacheStats returns statistics about all global caches in the system
func GetAllCacheStats() CacheStats {
	return CacheStats{
		URLCacheSize:       utils.GetURLCacheStats().Size,
		ReferenceCacheSize: references.GetRefCacheStats().Size,
		FieldCacheSize:     marshaller.GetFieldCacheStats().Size,
		BindingCacheSize:   int64(discriminator.DefaultCache().Len()),
	}
}
