package yml

import (
	"fmt"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ErrAliasCycle is returned when an alias refers to a node that contains it.
	ErrAliasCycle = errors.Error("alias refers to an enclosing node")
	// ErrAliasExpansionLimit is returned when expanding aliases would produce more than MaxAliasExpansion nodes.
	ErrAliasExpansionLimit = errors.Error("alias expansion limit exceeded")
)

// MaxAliasExpansion bounds the number of nodes a document may produce through alias expansion.
const MaxAliasExpansion = 1_000_000

// Normalize returns a copy of node in JSON-equivalent form.
// Aliases are expanded, merge keys (<<) are flattened with explicit keys taking precedence,
// mapping keys become strings and scalars with YAML-only tags (timestamps, binary) become strings.
// Cyclic aliases fail with ErrAliasCycle, and documents expanding to more than MaxAliasExpansion
// aliased nodes fail with ErrAliasExpansionLimit.
func Normalize(node *yaml.Node) (*yaml.Node, error) {
	n := &normalizer{expanding: map[*yaml.Node]bool{}}
	return n.normalize(node)
}

type normalizer struct {
	// expanding holds the alias targets currently being expanded.
	expanding map[*yaml.Node]bool
	depth     int
	expanded  int
}

func (n *normalizer) normalize(node *yaml.Node) (*yaml.Node, error) {
	if node == nil {
		return nil, nil
	}

	if n.depth > 0 {
		n.expanded++
		if n.expanded > MaxAliasExpansion {
			return nil, ErrAliasExpansionLimit.Wrap(fmt.Errorf("[%d:%d] more than %d nodes", node.Line, node.Column, MaxAliasExpansion))
		}
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return n.normalize(node.Content[0])
	case yaml.AliasNode:
		return n.expandAlias(node)
	case yaml.ScalarNode:
		return normalizeScalar(node), nil
	case yaml.SequenceNode:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: node.Style, Line: node.Line, Column: node.Column}
		for _, item := range node.Content {
			v, err := n.normalize(item)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, v)
		}
		return out, nil
	case yaml.MappingNode:
		return n.normalizeMapping(node)
	default:
		return nil, fmt.Errorf("unknown node kind: %s", NodeKindToString(node.Kind))
	}
}

func (n *normalizer) expandAlias(node *yaml.Node) (*yaml.Node, error) {
	target := node.Alias
	if target == nil {
		return nil, fmt.Errorf("[%d:%d] alias %q has no target", node.Line, node.Column, node.Value)
	}
	if n.expanding[target] {
		return nil, ErrAliasCycle.Wrap(fmt.Errorf("[%d:%d] *%s", node.Line, node.Column, node.Value))
	}

	n.expanding[target] = true
	n.depth++
	defer func() {
		delete(n.expanding, target)
		n.depth--
	}()

	return n.normalize(target)
}

func (n *normalizer) normalizeMapping(node *yaml.Node) (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: node.Style, Line: node.Line, Column: node.Column}

	var merged []*yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := ResolveAlias(node.Content[i])
		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == "!!merge" {
			value := node.Content[i+1]
			if sources := ResolveAlias(value); sources.Kind == yaml.SequenceNode {
				merged = append(merged, sources.Content...)
			} else {
				merged = append(merged, value)
			}
			continue
		}

		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("[%d:%d] mapping keys must be scalars, got %s", keyNode.Line, keyNode.Column, NodeKindToString(keyNode.Kind))
		}

		value, err := n.normalize(node.Content[i+1])
		if err != nil {
			return nil, err
		}

		if _, _, exists := GetMapElementNodes(out, keyNode.Value); exists {
			SetMapElement(out, keyNode.Value, value)
			continue
		}

		key := CreateStringNode(keyNode.Value)
		key.Line, key.Column = keyNode.Line, keyNode.Column
		out.Content = append(out.Content, key, value)
	}

	for _, source := range merged {
		normalizedSource, err := n.normalize(source)
		if err != nil {
			return nil, err
		}
		if normalizedSource == nil || normalizedSource.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("[%d:%d] merge key value must be a mapping", source.Line, source.Column)
		}

		for i := 0; i+1 < len(normalizedSource.Content); i += 2 {
			key := normalizedSource.Content[i].Value
			if _, _, exists := GetMapElementNodes(out, key); exists {
				continue
			}
			out.Content = append(out.Content, normalizedSource.Content[i], normalizedSource.Content[i+1])
		}
	}

	return out, nil
}

func normalizeScalar(node *yaml.Node) *yaml.Node {
	out := *node
	out.Anchor = ""
	out.HeadComment, out.LineComment, out.FootComment = "", "", ""

	switch node.ShortTag() {
	case "!!str", "!!int", "!!float", "!!bool", "!!null":
		out.Tag = node.ShortTag()
	default:
		out.Tag = "!!str"
	}

	return &out
}
