package values

import (
	"context"

	"github.com/speakeasy-api/serverlessworkflow/marshaller"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

// Object is a free-form JSON object such as workflow constants or an inline schema.
// Unlike a map it only accepts an object when decoding and keeps its keys in document order.
type Object struct {
	node *yaml.Node
}

// NewObject wraps node, which should be a mapping node.
func NewObject(node *yaml.Node) Object {
	return Object{node: yml.ResolveAlias(node)}
}

// Node returns the underlying mapping node, or nil for an empty Object.
func (o Object) Node() *yaml.Node {
	return o.node
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	if o.node == nil {
		return nil, false
	}
	_, v, ok := yml.GetMapElementNodes(o.node, key)
	return v, ok
}

// Len returns the number of keys in the object.
func (o Object) Len() int {
	if o.node == nil {
		return 0
	}
	return len(o.node.Content) / 2
}

// Decode decodes the object into out using the standard yaml decoding rules.
func (o Object) Decode(out any) error {
	if o.node == nil {
		return nil
	}
	return o.node.Decode(out)
}

func (o *Object) UnmarshalNode(_ context.Context, node *yaml.Node) error {
	node = yml.ResolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return &marshaller.TypeMismatchError{Expected: "object", Got: yml.NodeKindToString(node.Kind), Line: node.Line, Column: node.Column}
	}
	o.node = node
	return nil
}

func (o *Object) MarshalNode(_ context.Context) (*yaml.Node, error) {
	if o == nil || o.node == nil {
		return nil, nil
	}
	return o.node, nil
}
