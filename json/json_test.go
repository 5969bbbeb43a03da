package json_test

import (
	"bytes"
	"testing"

	"github.com/speakeasy-api/serverlessworkflow/json"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLToJSON_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		indentation int
		expected    string
	}{
		{
			name:     "keeps key order",
			input:    "z: 1\na: two\nm:\n  - true\n  - null\n",
			expected: "{\"z\":1,\"a\":\"two\",\"m\":[true,null]}\n",
		},
		{
			name:        "indented",
			input:       "a:\n  b: 1.50\n",
			indentation: 2,
			expected:    "{\n  \"a\": {\n    \"b\": 1.50\n  }\n}\n",
		},
		{
			name:     "quoted numbers stay strings",
			input:    "version: \"1.0\"\n",
			expected: "{\"version\":\"1.0\"}\n",
		},
		{
			name:     "html is not escaped",
			input:    "expr: \"${ .a < .b }\"\n",
			expected: "{\"expr\":\"${ .a < .b }\"}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			node, _, err := yml.Parse([]byte(tt.input))
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, json.YAMLToJSON(node, tt.indentation, &buf))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestMarshal_Compact(t *testing.T) {
	t.Parallel()

	node, _, err := yml.Parse([]byte(`{"b": [1, 2], "a": {}}`))
	require.NoError(t, err)

	data, err := json.Marshal(node)
	require.NoError(t, err)
	assert.Equal(t, `{"b":[1,2],"a":{}}`, string(data))
}
