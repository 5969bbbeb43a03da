package values

import (
	"context"
	"fmt"
	"reflect"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/marshaller"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

// OneOf represents a property that may hold a value of either type A or type B.
// At most one side is populated.
//
// Decoding tries A first and falls back to B, so A should be the more specific shape
// when both could accept the same input (for example an object before a plain string).
// Encoding writes the populated value in its own shape with no wrapper.
type OneOf[A any, B any] struct {
	// Left holds the A value. Set it directly to build a OneOf.
	Left *A
	// Right holds the B value. Set it directly to build a OneOf.
	Right *B
}

// NewLeft returns a OneOf holding a.
func NewLeft[A any, B any](a A) *OneOf[A, B] {
	return &OneOf[A, B]{Left: &a}
}

// NewRight returns a OneOf holding b.
func NewRight[A any, B any](b B) *OneOf[A, B] {
	return &OneOf[A, B]{Right: &b}
}

// IsLeft returns true if the OneOf holds an A value.
func (o *OneOf[A, B]) IsLeft() bool {
	return o != nil && o.Left != nil
}

// IsRight returns true if the OneOf holds a B value.
func (o *OneOf[A, B]) IsRight() bool {
	return o != nil && o.Right != nil
}

// IsEmpty returns true if neither side is populated.
func (o *OneOf[A, B]) IsEmpty() bool {
	return o == nil || (o.Left == nil && o.Right == nil)
}

// GetLeft returns a pointer to the A value, or nil.
func (o *OneOf[A, B]) GetLeft() *A {
	if o == nil {
		return nil
	}
	return o.Left
}

// GetRight returns a pointer to the B value, or nil.
func (o *OneOf[A, B]) GetRight() *B {
	if o == nil {
		return nil
	}
	return o.Right
}

// LeftValue returns the A value, or the zero value of A when it is not set.
func (o *OneOf[A, B]) LeftValue() A {
	if o == nil || o.Left == nil {
		var zero A
		return zero
	}
	return *o.Left
}

// RightValue returns the B value, or the zero value of B when it is not set.
func (o *OneOf[A, B]) RightValue() B {
	if o == nil || o.Right == nil {
		var zero B
		return zero
	}
	return *o.Right
}

// IsEqual compares two OneOf instances for equality.
func (o *OneOf[A, B]) IsEqual(other *OneOf[A, B]) bool {
	if o.IsEmpty() && other.IsEmpty() {
		return true
	}
	if o.IsEmpty() || other.IsEmpty() || o.IsLeft() != other.IsLeft() {
		return false
	}
	if o.IsLeft() {
		return reflect.DeepEqual(o.Left, other.Left)
	}
	return reflect.DeepEqual(o.Right, other.Right)
}

// UnmarshalNode decodes node as A, falling back to B.
// A null node leaves both sides empty.
func (o *OneOf[A, B]) UnmarshalNode(ctx context.Context, node *yaml.Node) error {
	o.Left, o.Right = nil, nil

	node = yml.ResolveAlias(node)
	if yml.IsNull(node) {
		return nil
	}

	left, leftErr := decodeSide[A](ctx, node)
	if leftErr == nil {
		o.Left = left
		return nil
	}

	right, rightErr := decodeSide[B](ctx, node)
	if rightErr == nil {
		o.Right = right
		return nil
	}

	return &errors.DecodeError{
		Left:     typeName[A](),
		Right:    typeName[B](),
		LeftErr:  leftErr,
		RightErr: rightErr,
		Line:     node.Line,
		Column:   node.Column,
	}
}

// MarshalNode encodes whichever side is populated.
func (o *OneOf[A, B]) MarshalNode(ctx context.Context) (*yaml.Node, error) {
	switch {
	case o == nil:
		return nil, nil
	case o.Left != nil:
		return marshaller.Marshal(ctx, o.Left)
	case o.Right != nil:
		return marshaller.Marshal(ctx, o.Right)
	default:
		return nil, nil
	}
}

func decodeSide[T any](ctx context.Context, node *yaml.Node) (*T, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if !acceptsKind(typ, node.Kind) {
		return nil, fmt.Errorf("[%d:%d] %s cannot hold %s", node.Line, node.Column, typ, yml.NodeKindToString(node.Kind))
	}

	out := new(T)
	if err := marshaller.Unmarshal(ctx, node, out); err != nil {
		return nil, err
	}

	v := reflect.ValueOf(out).Elem()
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil, fmt.Errorf("[%d:%d] %s decoded to null", node.Line, node.Column, typ)
		}
	}

	return out, nil
}

// acceptsKind peeks at the node shape so a structurally impossible alternative is skipped
// without attempting a full decode.
func acceptsKind(typ reflect.Type, kind yaml.Kind) bool {
	if reflect.PointerTo(typ).Implements(reflect.TypeOf((*marshaller.Unmarshaller)(nil)).Elem()) {
		return true
	}

	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	switch typ.Kind() {
	case reflect.Struct:
		if typ == reflect.TypeOf(yaml.Node{}) {
			return true
		}
		return kind == yaml.MappingNode
	case reflect.Map:
		return kind == yaml.MappingNode
	case reflect.Slice, reflect.Array:
		return kind == yaml.SequenceNode
	case reflect.Interface:
		if typ.NumMethod() == 0 {
			return true
		}
		return kind == yaml.MappingNode
	default:
		return kind == yaml.ScalarNode
	}
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
