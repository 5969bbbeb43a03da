// Package yml provides helpers for reading, normalizing and building yaml.Node trees.
//
// Every document handled by this module, JSON or YAML, is represented as a yaml.Node tree once parsed.
package yml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DetectFormat sniffs the format of a document.
// Trimmed content starting with '{' and ending with '}' (or '[' and ']') is JSON, anything else is YAML.
func DetectFormat(data []byte) OutputFormat {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) < 2 {
		return OutputFormatYAML
	}

	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if (first == '{' && last == '}') || (first == '[' && last == ']') {
		return OutputFormatJSON
	}

	return OutputFormatYAML
}

// Parse parses a JSON or YAML document into a normalized node tree.
// The returned node is the document's root value, never a DocumentNode.
// YAML specific constructs (aliases, merge keys, non-string keys, timestamps) are normalized to their JSON equivalent.
func Parse(data []byte) (*yaml.Node, OutputFormat, error) {
	format := DetectFormat(data)

	if format == OutputFormatJSON {
		node, err := parseJSON(data)
		if err != nil {
			return nil, format, fmt.Errorf("invalid json document: %w", err)
		}
		return node, format, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, format, fmt.Errorf("invalid yaml document: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 || IsNull(doc.Content[0]) {
		return nil, format, errors.New("empty document")
	}

	node, err := Normalize(doc.Content[0])
	if err != nil {
		return nil, format, err
	}

	return node, format, nil
}

// parseJSON builds a node tree from JSON tokens so key order and line information survive.
func parseJSON(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := parseJSONValue(dec, data)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected trailing content")
	}

	return node, nil
}

func parseJSONValue(dec *json.Decoder, data []byte) (*yaml.Node, error) {
	line := lineAt(data, dec.InputOffset())

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: yaml.FlowStyle, Line: line}
			for dec.More() {
				keyLine := lineAt(data, dec.InputOffset())
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				keyNode := CreateStringNode(key)
				keyNode.Line = keyLine

				value, err := parseJSONValue(dec, data)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, keyNode, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '[':
			node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle, Line: line}
			for dec.More() {
				value, err := parseJSONValue(dec, data)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		n := CreateStringNode(t)
		n.Style = yaml.DoubleQuotedStyle
		n.Line = line
		return n, nil
	case json.Number:
		var n *yaml.Node
		if i, err := t.Int64(); err == nil {
			n = CreateIntNode(i)
		} else {
			n = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: t.String()}
		}
		n.Line = line
		return n, nil
	case bool:
		n := CreateBoolNode(t)
		n.Line = line
		return n, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null", Line: line}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

// NodeKindToString returns a human-readable name for a yaml.Kind.
func NodeKindToString(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "object"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// ResolveAlias follows alias nodes to the node they point at.
func ResolveAlias(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}

	if node.Kind == yaml.AliasNode {
		return ResolveAlias(node.Alias)
	}

	return node
}

// IsNull reports whether the node is absent or an explicit null.
func IsNull(node *yaml.Node) bool {
	node = ResolveAlias(node)
	return node == nil || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}

// GetMapElementNodes returns the key and value nodes for key in a mapping node.
func GetMapElementNodes(mapNode *yaml.Node, key string) (*yaml.Node, *yaml.Node, bool) {
	return findMapElement(mapNode, func(k string) bool { return k == key })
}

// GetMapElementNodesFold is GetMapElementNodes with case-insensitive key matching.
func GetMapElementNodesFold(mapNode *yaml.Node, key string) (*yaml.Node, *yaml.Node, bool) {
	return findMapElement(mapNode, func(k string) bool { return strings.EqualFold(k, key) })
}

func findMapElement(mapNode *yaml.Node, match func(string) bool) (*yaml.Node, *yaml.Node, bool) {
	mapNode = ResolveAlias(mapNode)
	if mapNode == nil || mapNode.Kind != yaml.MappingNode {
		return nil, nil, false
	}

	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		if match(mapNode.Content[i].Value) {
			return mapNode.Content[i], mapNode.Content[i+1], true
		}
	}

	return nil, nil, false
}

// SetMapElement sets key to value in a mapping node, replacing an existing entry in place.
func SetMapElement(mapNode *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value == key {
			mapNode.Content[i+1] = value
			return
		}
	}

	mapNode.Content = append(mapNode.Content, CreateStringNode(key), value)
}

func CreateStringNode(value string) *yaml.Node {
	return &yaml.Node{
		Value: value,
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
	}
}

func CreateIntNode(value int64) *yaml.Node {
	return &yaml.Node{
		Value: strconv.FormatInt(value, 10),
		Kind:  yaml.ScalarNode,
		Tag:   "!!int",
	}
}

func CreateBoolNode(value bool) *yaml.Node {
	return &yaml.Node{
		Value: strconv.FormatBool(value),
		Kind:  yaml.ScalarNode,
		Tag:   "!!bool",
	}
}

func CreateMapNode(content ...*yaml.Node) *yaml.Node {
	return &yaml.Node{
		Content: content,
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
	}
}

func CreateSequenceNode(content ...*yaml.Node) *yaml.Node {
	return &yaml.Node{
		Content: content,
		Kind:    yaml.SequenceNode,
		Tag:     "!!seq",
	}
}
