package references

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAbsoluteReference_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ref      Reference
		opts     ResolveOptions
		expected string
	}{
		{
			name:     "relative against base uri",
			ref:      "./functions.json",
			opts:     ResolveOptions{Mode: ConvertToAbsolute, BaseURI: "https://example.com/workflows/"},
			expected: "https://example.com/workflows/functions.json",
		},
		{
			name:     "relative against base uri of a file",
			ref:      "events.yaml#/events",
			opts:     ResolveOptions{Mode: ConvertToAbsolute, BaseURI: "https://example.com/workflows/main.json"},
			expected: "https://example.com/workflows/events.yaml",
		},
		{
			name:     "relative against base directory",
			ref:      "./defs/functions.json",
			opts:     ResolveOptions{Mode: ConvertToRelativeFilePath, BaseDirectory: "workflows"},
			expected: "workflows/defs/functions.json",
		},
		{
			name:     "absolute url in reject mode",
			ref:      "https://example.com/functions.json",
			opts:     ResolveOptions{Mode: Reject},
			expected: "https://example.com/functions.json",
		},
		{
			name:     "absolute path in absolute mode without base",
			ref:      "/srv/functions.json",
			opts:     ResolveOptions{Mode: ConvertToAbsolute},
			expected: "/srv/functions.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ResolveAbsoluteReference(tt.ref, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.AbsoluteReference)
		})
	}
}

func TestResolveAbsoluteReference_RelativeNotSupported_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts ResolveOptions
	}{
		{name: "reject mode", opts: ResolveOptions{Mode: Reject}},
		{name: "absolute mode without base uri", opts: ResolveOptions{Mode: ConvertToAbsolute}},
		{name: "absolute mode with relative base uri", opts: ResolveOptions{Mode: ConvertToAbsolute, BaseURI: "workflows/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ResolveAbsoluteReference("./functions.json", tt.opts)
			var relErr *errors.RelativeURINotSupportedError
			require.ErrorAs(t, err, &relErr)
			assert.Equal(t, "./functions.json", relErr.URI)
		})
	}
}

func TestResolve_File_Success(t *testing.T) {
	t.Parallel()

	vfs := fstest.MapFS{
		"workflows/functions.yaml": {Data: []byte("functions:\n  - name: greet\n    operation: https://example.com/api.json#greet\n")},
	}

	result, err := Resolve(context.Background(), "functions.yaml#/functions/0", ResolveOptions{
		Mode:          ConvertToRelativeFilePath,
		BaseDirectory: "workflows",
		Fetcher:       NewFetcher(vfs, nil),
	})
	require.NoError(t, err)

	assert.Equal(t, "workflows/functions.yaml", result.AbsoluteReference)
	assert.Equal(t, yml.OutputFormatYAML, result.Format)
	_, name, ok := yml.GetMapElementNodes(result.Node, "name")
	require.True(t, ok)
	assert.Equal(t, "greet", name.Value)
}

func TestResolve_File_NotFound(t *testing.T) {
	t.Parallel()

	_, err := Resolve(context.Background(), "missing.json", ResolveOptions{
		BaseDirectory: "workflows",
		Fetcher:       NewFetcher(fstest.MapFS{}, nil),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_HTTP_Success(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/workflows/functions.json", r.URL.Path)
		_, _ = w.Write([]byte(`[{"name":"greet","operation":"api.json#greet"}]`))
	}))
	defer server.Close()

	result, err := Resolve(context.Background(), "./functions.json", ResolveOptions{
		Mode:    ConvertToAbsolute,
		BaseURI: server.URL + "/workflows/",
		Fetcher: NewFetcher(nil, server.Client()),
	})
	require.NoError(t, err)

	assert.Equal(t, yml.OutputFormatJSON, result.Format)
	assert.Len(t, result.Node.Content, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_HTTP_Status_Error(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(nil, server.Client()).Fetch(context.Background(), server.URL+"/functions.json")

	var transportErr *errors.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusNotFound, transportErr.StatusCode)
}

func TestFetch_HTTP_Timeout_Error(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewFetcher(nil, server.Client()).Fetch(ctx, server.URL+"/slow.json")
	require.ErrorIs(t, err, ErrTimeout)
}

func TestFetch_Cancelled_BeforeFetch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(fstest.MapFS{"a.json": {Data: []byte(`{}`)}}, nil).Fetch(ctx, "a.json")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetch_UnsupportedScheme_Error(t *testing.T) {
	t.Parallel()

	_, err := NewFetcher(nil, nil).Fetch(context.Background(), "ftp://example.com/a.json")
	require.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestReference_Parts(t *testing.T) {
	t.Parallel()

	ref := Reference("functions.json#/functions/0")
	assert.Equal(t, "functions.json", ref.GetURI())
	assert.True(t, ref.HasJSONPointer())
	assert.Equal(t, "/functions/0", string(ref.GetJSONPointer()))
	require.NoError(t, ref.Validate())

	require.Error(t, Reference("#/a").Validate())
}

func TestRefCache_Stats(t *testing.T) {
	t.Parallel()

	c := &RefCache{}
	opts := ResolveOptions{Mode: ConvertToAbsolute, BaseURI: "https://example.com/"}

	_, err := c.Resolve("a.json", opts)
	require.NoError(t, err)
	_, err = c.Resolve("a.json", opts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.GetStats().Size)

	c.Clear()
	assert.Equal(t, int64(0), c.GetStats().Size)
}

func TestRefCache_EmptyBaseDirectory_FollowsWorkingDirectory(t *testing.T) {
	c := &RefCache{}
	opts := ResolveOptions{Mode: ConvertToRelativeFilePath}

	t.Chdir(t.TempDir())
	first, err := os.Getwd()
	require.NoError(t, err)
	before, err := c.Resolve("defs/events.json", opts)
	require.NoError(t, err)

	t.Chdir(t.TempDir())
	second, err := os.Getwd()
	require.NoError(t, err)
	after, err := c.Resolve("defs/events.json", opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.ToSlash(filepath.Join(first, "defs", "events.json")), before.AbsoluteReference)
	assert.Equal(t, filepath.ToSlash(filepath.Join(second, "defs", "events.json")), after.AbsoluteReference)
	assert.Equal(t, int64(2), c.GetStats().Size)
}
