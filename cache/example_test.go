package cache_test

import (
	"fmt"

	"github.com/speakeasy-api/serverlessworkflow/cache"
	"github.com/speakeasy-api/serverlessworkflow/internal/utils"
)

// ExampleClearAllCaches demonstrates how to clear all global caches
func ExampleClearAllCaches() {
	// Start with clean caches for predictable output
	cache.ClearAllCaches()

	_, _ = utils.ParseURLCached("https://example.com/workflows/greeting.json")
	_, _ = utils.ParseURLCached("https://example.com/workflows/functions.json")

	stats := cache.GetAllCacheStats()
	fmt.Printf("Before clearing - URL cache: %d\n", stats.URLCacheSize)

	cache.ClearAllCaches()

	stats = cache.GetAllCacheStats()
	fmt.Printf("After clearing - URL cache: %d, Reference cache: %d, Field cache: %d, Binding cache: %d\n",
		stats.URLCacheSize, stats.ReferenceCacheSize, stats.FieldCacheSize, stats.BindingCacheSize)

	// Output:
	// Before clearing - URL cache: 2
	// After clearing - URL cache: 0, Reference cache: 0, Field cache: 0, Binding cache: 0
}
