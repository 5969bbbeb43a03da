package marshaller

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/speakeasy-api/serverlessworkflow/discriminator"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

// Marshaller is implemented by types that encode themselves to a node.
// Returning a nil node omits the value from its parent.
type Marshaller interface {
	MarshalNode(ctx context.Context) (*yaml.Node, error)
}

var marshallerType = reflect.TypeOf((*Marshaller)(nil)).Elem()

// Marshal encodes v into a node tree.
// Nil pointers, nil interfaces, empty collections and zero scalars held in struct fields are omitted.
func Marshal(ctx context.Context, v any) (*yaml.Node, error) {
	node, err := encodeValue(ctx, reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	return node, nil
}

func encodeValue(ctx context.Context, v reflect.Value) (*yaml.Node, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Type().Implements(marshallerType) {
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return nil, nil
		}
		return v.Interface().(Marshaller).MarshalNode(ctx)
	}
	if v.Kind() != reflect.Ptr && reflect.PointerTo(v.Type()).Implements(marshallerType) {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		return ptr.Interface().(Marshaller).MarshalNode(ctx)
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Elem() == nodeType {
			node := *v.Interface().(*yaml.Node)
			return &node, nil
		}
		return encodeValue(ctx, v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		if v.NumMethod() == 0 {
			return encodeValue(ctx, v.Elem())
		}
		return encodeDiscriminated(ctx, v)
	case reflect.Struct:
		if v.Type() == nodeType {
			node := v.Interface().(yaml.Node)
			return &node, nil
		}
		return encodeStruct(ctx, v)
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		seq := yml.CreateSequenceNode()
		for i := 0; i < v.Len(); i++ {
			item, err := encodeValue(ctx, v.Index(i))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if item == nil {
				item = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
			}
			seq.Content = append(seq.Content, item)
		}
		return seq, nil
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		return encodeMap(ctx, v)
	default:
		node := &yaml.Node{}
		if err := node.Encode(v.Interface()); err != nil {
			return nil, err
		}
		return node, nil
	}
}

func encodeDiscriminated(ctx context.Context, v reflect.Value) (*yaml.Node, error) {
	binding, err := discriminator.CacheFromContext(ctx).Resolve(v.Type())
	if err != nil {
		return nil, err
	}

	instance := v.Elem().Interface()
	value, err := binding.ValueOf(instance)
	if err != nil {
		return nil, err
	}

	node, err := encodeValue(ctx, v.Elem())
	if err != nil {
		return nil, err
	}
	if node == nil {
		node = yml.CreateMapNode()
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s variant %T must encode to an object", binding.AbstractType.Name(), instance)
	}

	if keyNode, valueNode, ok := yml.GetMapElementNodesFold(node, binding.Property); ok {
		keyNode.Value = binding.Property
		*valueNode = *yml.CreateStringNode(value)
		return node, nil
	}

	node.Content = append([]*yaml.Node{yml.CreateStringNode(binding.Property), yml.CreateStringNode(value)}, node.Content...)
	return node, nil
}

func encodeStruct(ctx context.Context, v reflect.Value) (*yaml.Node, error) {
	fm := getFieldMap(v.Type())
	out := yml.CreateMapNode()

	for _, field := range fm.Fields {
		fv := v.FieldByIndex(field.Index)
		if fv.IsZero() && !fv.Type().Implements(marshallerType) && !reflect.PointerTo(fv.Type()).Implements(marshallerType) {
			continue
		}

		node, err := encodeValue(ctx, fv)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", v.Type().Name(), field.Key, err)
		}
		if node == nil {
			continue
		}

		out.Content = append(out.Content, yml.CreateStringNode(field.Key), node)
	}

	return out, nil
}

func encodeMap(ctx context.Context, v reflect.Value) (*yaml.Node, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("unsupported map key type %s", v.Type().Key())
	}

	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	out := yml.CreateMapNode()
	for _, key := range keys {
		node, err := encodeValue(ctx, v.MapIndex(key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key.String(), err)
		}
		if node == nil {
			node = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		out.Content = append(out.Content, yml.CreateStringNode(key.String()), node)
	}

	return out, nil
}
