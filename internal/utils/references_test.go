package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyReference_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ref      string
		typ      ReferenceType
		scheme   string
		absolute bool
	}{
		{name: "https url", ref: "https://example.com/schemas/a.json", typ: ReferenceTypeURL, scheme: "https", absolute: true},
		{name: "file url", ref: "file:///tmp/a.json", typ: ReferenceTypeURL, scheme: "file", absolute: true},
		{name: "fragment", ref: "#/definitions/a", typ: ReferenceTypeFragment},
		{name: "relative dot path", ref: "./functions.json", typ: ReferenceTypeFilePath},
		{name: "bare file name", ref: "functions.json", typ: ReferenceTypeFilePath},
		{name: "absolute path", ref: "/srv/workflows/functions.json", typ: ReferenceTypeFilePath, absolute: true},
		{name: "windows drive", ref: `C:\workflows\functions.json`, typ: ReferenceTypeFilePath, absolute: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rc, err := ClassifyReference(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, rc.Type)
			assert.Equal(t, tt.scheme, rc.Scheme)
			assert.Equal(t, tt.absolute, rc.Absolute)
		})
	}
}

func TestClassifyReference_Empty_Error(t *testing.T) {
	t.Parallel()

	_, err := ClassifyReference("")
	require.Error(t, err)
}

func TestJoinReference_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		relative string
		expected string
	}{
		{name: "url relative", base: "https://example.com/workflows/", relative: "./functions.json", expected: "https://example.com/workflows/functions.json"},
		{name: "url sibling of file", base: "https://example.com/schemas/root.json", relative: "child.json", expected: "https://example.com/schemas/child.json"},
		{name: "url parent", base: "https://example.com/schemas/a/root.json", relative: "../b/child.json", expected: "https://example.com/schemas/b/child.json"},
		{name: "url absolute relative", base: "https://example.com/schemas/root.json", relative: "https://other.com/x.json", expected: "https://other.com/x.json"},
		{name: "fragment replaces fragment", base: "https://example.com/root.json#/a", relative: "#/b", expected: "https://example.com/root.json#/b"},
		{name: "file sibling", base: "/srv/workflows/main.yaml", relative: "functions.json", expected: "/srv/workflows/functions.json"},
		{name: "file absolute relative", base: "/srv/workflows/main.yaml", relative: "/etc/events.json", expected: "/etc/events.json"},
		{name: "empty base", base: "", relative: "functions.json", expected: "functions.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			joined, err := JoinReference(tt.base, tt.relative)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, joined)
		})
	}
}

func TestSplitFragment(t *testing.T) {
	t.Parallel()

	doc, fragment := SplitFragment("https://example.com/a.json#/properties/b")
	assert.Equal(t, "https://example.com/a.json", doc)
	assert.Equal(t, "/properties/b", fragment)

	doc, fragment = SplitFragment("a.json")
	assert.Equal(t, "a.json", doc)
	assert.Empty(t, fragment)
}

func TestURLCache_Parse_ReturnsCopies(t *testing.T) {
	t.Parallel()

	c := &URLCache{}
	first, err := c.Parse("https://example.com/a.json")
	require.NoError(t, err)
	first.Path = "/mutated"

	second, err := c.Parse("https://example.com/a.json")
	require.NoError(t, err)
	assert.Equal(t, "/a.json", second.Path)
	assert.Equal(t, int64(1), c.Stats().Size)

	c.Clear()
	assert.Equal(t, int64(0), c.Stats().Size)
}
