package jsonschema

import (
	"iter"

	"github.com/speakeasy-api/serverlessworkflow/internal/utils"
	"github.com/speakeasy-api/serverlessworkflow/walk"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

// Keywords whose payload is a map of subschemas.
var schemaMapKeywords = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"$defs":             true,
	"definitions":       true,
	"dependentSchemas":  true,
	"dependencies":      true,
}

// Keywords whose payload is a single subschema, or a list of them for the legacy array form of items.
var schemaKeywords = map[string]bool{
	"items":                 true,
	"additionalItems":       true,
	"additionalProperties":  true,
	"contains":              true,
	"if":                    true,
	"then":                  true,
	"else":                  true,
	"not":                   true,
	"propertyNames":         true,
	"unevaluatedItems":      true,
	"unevaluatedProperties": true,
	"contentSchema":         true,
}

// Keywords whose payload is a list of subschemas.
var schemaListKeywords = map[string]bool{
	"allOf":       true,
	"anyOf":       true,
	"oneOf":       true,
	"prefixItems": true,
}

// SchemaWalkItem represents a single schema object yielded by Walk.
type SchemaWalkItem struct {
	Node *yaml.Node
	// BaseURI is the base the node's references resolve against, accounting for any enclosing $id.
	BaseURI  string
	Location walk.Locations
}

// Ref returns the node's $ref value, if it declares one.
func (i SchemaWalkItem) Ref() (string, bool) {
	_, ref, ok := yml.GetMapElementNodes(i.Node, "$ref")
	if !ok || ref.Kind != yaml.ScalarNode {
		return "", false
	}
	return ref.Value, true
}

// Walk returns an iterator that yields every schema object in doc breadth first, starting with doc itself.
// Boolean schemas are skipped as they cannot declare references.
func Walk(doc *yaml.Node, baseURI string) iter.Seq[SchemaWalkItem] {
	return func(yield func(SchemaWalkItem) bool) {
		doc = yml.ResolveAlias(doc)
		if doc == nil || doc.Kind != yaml.MappingNode {
			return
		}

		queue := []SchemaWalkItem{{Node: doc, BaseURI: nodeBase(doc, baseURI)}}
		for len(queue) > 0 {
			item := queue[0]
			queue = queue[1:]

			if !yield(item) {
				return
			}

			queue = append(queue, subschemas(item)...)
		}
	}
}

func subschemas(item SchemaWalkItem) []SchemaWalkItem {
	var out []SchemaWalkItem

	add := func(node *yaml.Node, loc walk.LocationContext) {
		node = yml.ResolveAlias(node)
		if node == nil || node.Kind != yaml.MappingNode {
			return
		}
		out = append(out, SchemaWalkItem{
			Node:     node,
			BaseURI:  nodeBase(node, item.BaseURI),
			Location: item.Location.Append(loc),
		})
	}

	for i := 0; i+1 < len(item.Node.Content); i += 2 {
		keyword := item.Node.Content[i].Value
		value := yml.ResolveAlias(item.Node.Content[i+1])

		switch {
		case schemaMapKeywords[keyword] && value.Kind == yaml.MappingNode:
			for j := 0; j+1 < len(value.Content); j += 2 {
				add(value.Content[j+1], walk.Key(keyword, value.Content[j].Value))
			}
		case schemaKeywords[keyword] && value.Kind == yaml.MappingNode:
			add(value, walk.Field(keyword))
		case (schemaListKeywords[keyword] || schemaKeywords[keyword]) && value.Kind == yaml.SequenceNode:
			for j, entry := range value.Content {
				add(entry, walk.Index(keyword, j))
			}
		}
	}

	return out
}

// nodeBase returns the base URI of node: its own $id resolved against parent, otherwise parent.
// Fragments are dropped as they never change the document a reference lands in.
func nodeBase(node *yaml.Node, parent string) string {
	_, id, ok := yml.GetMapElementNodes(node, "$id")
	if !ok || id.Kind != yaml.ScalarNode || id.Value == "" {
		return parent
	}

	resolved, err := utils.JoinReference(parent, id.Value)
	if err != nil {
		return parent
	}

	doc, _ := utils.SplitFragment(resolved)
	if doc == "" {
		return parent
	}
	return doc
}
