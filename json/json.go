// Package json provides utilities for working with JSON.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/speakeasy-api/serverlessworkflow/sequencedmap"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

// YAMLToJSON will convert the provided YAML node to JSON in a stable way not reordering keys.
// An indentation of 0 produces compact output.
func YAMLToJSON(node *yaml.Node, indentation int, buffer io.Writer) error {
	v, err := handleYAMLNode(node)
	if err != nil {
		return err
	}

	e := json.NewEncoder(buffer)
	e.SetEscapeHTML(false)
	if indentation > 0 {
		e.SetIndent("", strings.Repeat(" ", indentation))
	}

	return e.Encode(v)
}

// Marshal is YAMLToJSON returning the compact encoding without the trailing newline.
func Marshal(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := YAMLToJSON(node, 0, &buf); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func handleYAMLNode(node *yaml.Node) (any, error) {
	if node == nil {
		return nil, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return handleYAMLNode(node.Content[0])
	case yaml.SequenceNode:
		return handleSequenceNode(node)
	case yaml.MappingNode:
		return handleMappingNode(node)
	case yaml.ScalarNode:
		return handleScalarNode(node)
	case yaml.AliasNode:
		return handleYAMLNode(node.Alias)
	default:
		return nil, fmt.Errorf("unknown node kind: %s", yml.NodeKindToString(node.Kind))
	}
}

func handleMappingNode(node *yaml.Node) (any, error) {
	v := sequencedmap.New[string, any]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := yml.ResolveAlias(node.Content[i])

		vv, err := handleYAMLNode(node.Content[i+1])
		if err != nil {
			return nil, err
		}

		v.Set(keyNode.Value, vv)
	}

	return v, nil
}

func handleSequenceNode(node *yaml.Node) (any, error) {
	v := make([]any, 0, len(node.Content))
	for _, n := range node.Content {
		vv, err := handleYAMLNode(n)
		if err != nil {
			return nil, err
		}

		v = append(v, vv)
	}

	return v, nil
}

func handleScalarNode(node *yaml.Node) (any, error) {
	switch node.ShortTag() {
	case "!!int", "!!float":
		// Keep the literal so large or precise numbers are written back untouched.
		if json.Valid([]byte(node.Value)) {
			return json.RawMessage(node.Value), nil
		}
	case "!!str":
		return node.Value, nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}
