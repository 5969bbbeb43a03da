package cache

import (
	"context"
	"testing"

	"github.com/speakeasy-api/serverlessworkflow/discriminator"
	"github.com/speakeasy-api/serverlessworkflow/internal/utils"
	"github.com/speakeasy-api/serverlessworkflow/marshaller"
	"github.com/speakeasy-api/serverlessworkflow/references"
	"github.com/speakeasy-api/serverlessworkflow/workflow"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The caches are process wide, so none of these tests run in parallel.

func TestClearAllCaches_Success(t *testing.T) { //nolint:paralleltest
	populateURLCache(t)
	populateReferenceCache(t)
	populateFieldCache(t)
	populateBindingCache(t)

	stats := GetAllCacheStats()
	assert.Positive(t, stats.URLCacheSize, "URL cache should have entries")
	assert.Positive(t, stats.ReferenceCacheSize, "Reference cache should have entries")
	assert.Positive(t, stats.FieldCacheSize, "Field cache should have entries")
	assert.Positive(t, stats.BindingCacheSize, "Binding cache should have entries")

	ClearAllCaches()

	stats = GetAllCacheStats()
	assert.Equal(t, CacheStats{}, stats, "all caches should be empty")
}

func TestClearURLCache_Success(t *testing.T) { //nolint:paralleltest
	populateURLCache(t)
	assert.Positive(t, GetAllCacheStats().URLCacheSize)

	ClearURLCache()

	assert.Equal(t, int64(0), GetAllCacheStats().URLCacheSize)
}

func TestClearReferenceCache_Success(t *testing.T) { //nolint:paralleltest
	populateReferenceCache(t)
	assert.Positive(t, GetAllCacheStats().ReferenceCacheSize)

	ClearReferenceCache()

	assert.Equal(t, int64(0), GetAllCacheStats().ReferenceCacheSize)
}

func TestClearFieldCache_Success(t *testing.T) { //nolint:paralleltest
	populateFieldCache(t)
	assert.Positive(t, GetAllCacheStats().FieldCacheSize)

	ClearFieldCache()

	assert.Equal(t, int64(0), GetAllCacheStats().FieldCacheSize)
}

func TestClearBindingCache_DecodingStillWorks(t *testing.T) { //nolint:paralleltest
	populateBindingCache(t)
	assert.Positive(t, GetAllCacheStats().BindingCacheSize)

	ClearBindingCache()
	assert.Equal(t, int64(0), GetAllCacheStats().BindingCacheSize)

	// Bindings are rebuilt from the universe on the next decode.
	populateBindingCache(t)
	assert.Positive(t, GetAllCacheStats().BindingCacheSize)
}

func populateURLCache(t *testing.T) {
	t.Helper()

	urls := []string{
		"https://example1.com/workflows/v1",
		"https://example2.com/workflows/v2",
		"https://example3.com/workflows/v3",
	}

	for _, url := range urls {
		_, err := utils.ParseURLCached(url)
		require.NoError(t, err, "should parse URL successfully")
	}
}

func populateReferenceCache(t *testing.T) {
	t.Helper()

	refs := []references.Reference{"./functions.json", "events.yaml", "https://example.com/retries.json"}

	for _, ref := range refs {
		_, err := references.ResolveAbsoluteReference(ref, references.ResolveOptions{
			Mode:    references.ConvertToAbsolute,
			BaseURI: "https://example.com/workflows/",
		})
		require.NoError(t, err, "should resolve reference successfully")
	}
}

func populateFieldCache(t *testing.T) {
	t.Helper()

	type testStruct struct {
		Name  string `key:"name" required:"true"`
		Value int    `key:"value"`
	}

	node, _, err := yml.Parse([]byte(`{"name":"a","value":1}`))
	require.NoError(t, err)

	var out testStruct
	require.NoError(t, marshaller.Unmarshal(context.Background(), node, &out))
}

func populateBindingCache(t *testing.T) {
	t.Helper()

	_, err := discriminator.ResolveFor[workflow.State](discriminator.DefaultCache())
	require.NoError(t, err)
}
