package yml_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/speakeasy-api/serverlessworkflow/yml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		expected yml.OutputFormat
	}{
		{name: "object", data: `{"a":1}`, expected: yml.OutputFormatJSON},
		{name: "object with whitespace", data: "\n  {\n \"a\": 1\n}\n\n", expected: yml.OutputFormatJSON},
		{name: "array", data: `[1, 2]`, expected: yml.OutputFormatJSON},
		{name: "yaml mapping", data: "a: 1\nb: 2", expected: yml.OutputFormatYAML},
		{name: "yaml flow mapping not closed", data: "{a: 1}\nb: 2", expected: yml.OutputFormatYAML},
		{name: "empty", data: "", expected: yml.OutputFormatYAML},
		{name: "scalar", data: "hello", expected: yml.OutputFormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, yml.DetectFormat([]byte(tt.data)))
		})
	}
}

func TestParse_JSONAndYAML_Equivalent(t *testing.T) {
	t.Parallel()

	jsonNode, jsonFormat, err := yml.Parse([]byte(`{"a":1,"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, yml.OutputFormatJSON, jsonFormat)

	yamlNode, yamlFormat, err := yml.Parse([]byte("a: 1\nb: 2"))
	require.NoError(t, err)
	assert.Equal(t, yml.OutputFormatYAML, yamlFormat)

	var fromJSON, fromYAML map[string]any
	require.NoError(t, jsonNode.Decode(&fromJSON))
	require.NoError(t, yamlNode.Decode(&fromYAML))
	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, fromJSON)
}

func TestParse_JSON_PreservesKeyOrderAndTypes(t *testing.T) {
	t.Parallel()

	node, _, err := yml.Parse([]byte(`{"z": "s", "a": 1.5, "m": [true, null], "n": 10}`))
	require.NoError(t, err)
	require.Equal(t, yaml.MappingNode, node.Kind)

	keys := []string{}
	for i := 0; i < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	assert.Equal(t, []string{"z", "a", "m", "n"}, keys)
	assert.Equal(t, "!!str", node.Content[1].Tag)
	assert.Equal(t, "!!float", node.Content[3].Tag)
	assert.Equal(t, "!!bool", node.Content[5].Content[0].Tag)
	assert.Equal(t, "!!null", node.Content[5].Content[1].Tag)
	assert.Equal(t, "!!int", node.Content[7].Tag)
}

func TestParse_InvalidJSON_Error(t *testing.T) {
	t.Parallel()

	_, _, err := yml.Parse([]byte(`{"a": }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid json document")
}

func TestParse_EmptyYAML_Error(t *testing.T) {
	t.Parallel()

	_, _, err := yml.Parse([]byte("# just a comment\n"))
	require.Error(t, err)
}

func TestNormalize_AliasesMergeKeysAndTags(t *testing.T) {
	t.Parallel()

	data := `
base: &base
  retries: 3
  name: base
derived:
  <<: *base
  name: derived
when: 2024-01-02
1: one
list: &list [a, b]
again: *list
`
	node, _, err := yml.Parse([]byte(data))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, node.Decode(&out))

	assert.Equal(t, map[string]any{"name": "derived", "retries": 3}, out["derived"])
	assert.Equal(t, "2024-01-02", out["when"])
	assert.Equal(t, "one", out["1"])
	assert.Equal(t, []any{"a", "b"}, out["again"])
}

func TestNormalize_CyclicAlias_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "value", data: "a: &x\n  b: *x\n"},
		{name: "merge key", data: "a: &x\n  b: 1\n  <<: *x\n"},
		{name: "sequence", data: "a: &x\n  - *x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := yml.Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, yml.ErrAliasCycle)
		})
	}
}

func TestNormalize_AliasExpansionLimit_Error(t *testing.T) {
	t.Parallel()

	var data strings.Builder
	data.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&data, "a%d: &a%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				data.WriteString(", ")
			}
			fmt.Fprintf(&data, "*a%d", i-1)
		}
		data.WriteString("]\n")
	}

	_, _, err := yml.Parse([]byte(data.String()))
	require.Error(t, err)
	assert.ErrorIs(t, err, yml.ErrAliasExpansionLimit)
}

func TestGetMapElementNodesFold(t *testing.T) {
	t.Parallel()

	node, _, err := yml.Parse([]byte(`{"Type": "sleep"}`))
	require.NoError(t, err)

	_, v, ok := yml.GetMapElementNodesFold(node, "type")
	require.True(t, ok)
	assert.Equal(t, "sleep", v.Value)

	_, _, ok = yml.GetMapElementNodes(node, "type")
	assert.False(t, ok)
}

func TestConfig_Context(t *testing.T) {
	t.Parallel()

	cfg := yml.GetConfigFromDoc([]byte("a:\n    b: 1\n"))
	assert.Equal(t, 4, cfg.Indentation)
	assert.Equal(t, yml.OutputFormatYAML, cfg.OriginalFormat)
	assert.True(t, cfg.TrailingNewline)

	ctx := yml.ContextWithConfig(context.Background(), cfg)
	assert.Same(t, cfg, yml.GetConfigFromContext(ctx))
	assert.Equal(t, 2, yml.GetConfigFromContext(context.Background()).Indentation)
}
