// Package marshaller decodes yaml.Node trees into Go models and encodes them back.
//
// Models are plain structs whose fields carry a `key:"name"` tag naming the document property.
// A `required:"true"` tag makes a property mandatory. Fields typed as a discriminated interface
// are resolved through the discriminator.Cache carried by the context.
package marshaller

import (
	"context"
	"fmt"
	"reflect"

	"github.com/speakeasy-api/serverlessworkflow/discriminator"
	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

// ErrTypeMismatch is matched by every TypeMismatchError.
const ErrTypeMismatch errors.Error = "type mismatch"

// Unmarshaller is implemented by types that decode themselves from a node.
type Unmarshaller interface {
	UnmarshalNode(ctx context.Context, node *yaml.Node) error
}

var (
	nodeType         = reflect.TypeOf(yaml.Node{})
	unmarshallerType = reflect.TypeOf((*Unmarshaller)(nil)).Elem()
)

// TypeMismatchError reports a node whose shape cannot populate the target type.
type TypeMismatchError struct {
	Expected string
	Got      string
	Line     int
	Column   int
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("[%d:%d] expected %s, got %s", e.Line, e.Column, e.Expected, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// MissingFieldError reports a required property absent from an object.
type MissingFieldError struct {
	Type   string
	Key    string
	Line   int
	Column int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("[%d:%d] %s: missing required property %q", e.Line, e.Column, e.Type, e.Key)
}

// Unmarshal populates out, which must be a non-nil pointer, from node.
func Unmarshal(ctx context.Context, node *yaml.Node, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("unmarshal target must be a non-nil pointer, got %T", out)
	}

	return decodeValue(ctx, node, v.Elem())
}

func decodeValue(ctx context.Context, node *yaml.Node, v reflect.Value) error {
	node = yml.ResolveAlias(node)
	if node != nil && node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			node = nil
		} else {
			node = yml.ResolveAlias(node.Content[0])
		}
	}

	if v.CanAddr() && v.Addr().Type().Implements(unmarshallerType) {
		if node == nil {
			return nil
		}
		return v.Addr().Interface().(Unmarshaller).UnmarshalNode(ctx, node)
	}

	if v.Type() == nodeType {
		if node != nil {
			v.Set(reflect.ValueOf(*node))
		}
		return nil
	}

	if yml.IsNull(node) {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}

	switch v.Kind() {
	case reflect.Ptr:
		elem := reflect.New(v.Type().Elem())
		if err := decodeValue(ctx, node, elem.Elem()); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	case reflect.Interface:
		if v.NumMethod() == 0 {
			var raw any
			if err := node.Decode(&raw); err != nil {
				return err
			}
			if raw != nil {
				v.Set(reflect.ValueOf(raw))
			}
			return nil
		}
		return decodeDiscriminated(ctx, node, v)
	case reflect.Struct:
		return decodeStruct(ctx, node, v)
	case reflect.Slice:
		return decodeSlice(ctx, node, v)
	case reflect.Map:
		return decodeMap(ctx, node, v)
	default:
		return decodeScalar(node, v)
	}
}

func decodeDiscriminated(ctx context.Context, node *yaml.Node, v reflect.Value) error {
	binding, err := discriminator.CacheFromContext(ctx).Resolve(v.Type())
	if err != nil {
		return err
	}

	instance, err := binding.Decode(ctx, node, Unmarshal)
	if err != nil {
		return err
	}

	v.Set(reflect.ValueOf(instance))
	return nil
}

func decodeStruct(ctx context.Context, node *yaml.Node, v reflect.Value) error {
	if node.Kind != yaml.MappingNode {
		return mismatch("object", node)
	}

	fm := getFieldMap(v.Type())
	seen := make(map[string]bool, len(fm.Fields))

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		field, ok := fm.lookup(key)
		if !ok {
			continue
		}
		seen[key] = true

		if err := decodeValue(ctx, node.Content[i+1], v.FieldByIndex(field.Index)); err != nil {
			return fmt.Errorf("%s.%s: %w", v.Type().Name(), key, err)
		}
	}

	for _, field := range fm.Fields {
		if field.Required && !seen[field.Key] {
			return &MissingFieldError{Type: v.Type().Name(), Key: field.Key, Line: node.Line, Column: node.Column}
		}
	}

	return nil
}

func decodeSlice(ctx context.Context, node *yaml.Node, v reflect.Value) error {
	if node.Kind != yaml.SequenceNode {
		return mismatch("array", node)
	}

	out := reflect.MakeSlice(v.Type(), len(node.Content), len(node.Content))
	for i, item := range node.Content {
		if err := decodeValue(ctx, item, out.Index(i)); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	v.Set(out)

	return nil
}

func decodeMap(ctx context.Context, node *yaml.Node, v reflect.Value) error {
	if node.Kind != yaml.MappingNode {
		return mismatch("object", node)
	}
	if v.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("unsupported map key type %s", v.Type().Key())
	}

	out := reflect.MakeMapWithSize(v.Type(), len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := reflect.New(v.Type().Key()).Elem()
		key.SetString(node.Content[i].Value)

		value := reflect.New(v.Type().Elem()).Elem()
		if err := decodeValue(ctx, node.Content[i+1], value); err != nil {
			return fmt.Errorf("%s: %w", node.Content[i].Value, err)
		}
		out.SetMapIndex(key, value)
	}
	v.Set(out)

	return nil
}

func decodeScalar(node *yaml.Node, v reflect.Value) error {
	if node.Kind != yaml.ScalarNode {
		return mismatch(v.Kind().String(), node)
	}

	target := reflect.New(v.Type())
	if err := node.Decode(target.Interface()); err != nil {
		return &TypeMismatchError{Expected: v.Kind().String(), Got: fmt.Sprintf("%q", node.Value), Line: node.Line, Column: node.Column}
	}
	v.Set(target.Elem())

	return nil
}

func mismatch(expected string, node *yaml.Node) error {
	return &TypeMismatchError{Expected: expected, Got: yml.NodeKindToString(node.Kind), Line: node.Line, Column: node.Column}
}
