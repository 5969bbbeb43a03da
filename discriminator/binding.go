package discriminator

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var discriminatedType = reflect.TypeOf((*Discriminated)(nil)).Elem()

// UnknownValuePolicy controls what happens when a discriminator value matches no subtype and
// the abstract type has no default.
type UnknownValuePolicy int

const (
	// RejectUnknown fails decoding with an UnknownDiscriminatorError.
	RejectUnknown UnknownValuePolicy = iota
	// RouteUnknownToExtension decodes into the declared extension variant, if any.
	RouteUnknownToExtension
)

// DecodeFunc populates target, a pointer to a freshly created variant, from node.
type DecodeFunc func(ctx context.Context, node *yaml.Node, target any) error

// Binding is the validated, ready to use discriminator configuration of one abstract type.
// Bindings are immutable once built and safe for concurrent use.
type Binding struct {
	AbstractType reflect.Type
	Property     string

	values    map[string]Subtype
	accepted  []string
	def       *Subtype
	extension func() any
	policy    UnknownValuePolicy
}

func fold(s string) string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Fold().String(s)
}

func buildBinding(decl Declaration, policy UnknownValuePolicy) (*Binding, error) {
	typ := decl.AbstractType
	name := typ.String()

	if typ.Kind() != reflect.Interface {
		return nil, &errors.MissingDiscriminatorBindingError{AbstractType: name, Reason: "abstract type must be an interface"}
	}
	if !typ.Implements(discriminatedType) {
		return nil, &errors.MissingDiscriminatorBindingError{AbstractType: name, Reason: "abstract type does not expose DiscriminatorValue"}
	}
	if decl.Property == "" {
		return nil, &errors.MissingDiscriminatorBindingError{AbstractType: name, Reason: "discriminator property is empty"}
	}
	if len(decl.Subtypes) == 0 {
		return nil, &errors.MissingDiscriminatorBindingError{AbstractType: name, Reason: "no subtypes declared"}
	}

	b := &Binding{
		AbstractType: typ,
		Property:     decl.Property,
		values:       map[string]Subtype{},
		extension:    decl.Extension,
		policy:       policy,
	}

	for _, st := range decl.Subtypes {
		instance := st.New()
		if instance == nil || !reflect.TypeOf(instance).Implements(typ) {
			return nil, &errors.MissingDiscriminatorBindingError{AbstractType: name, Reason: fmt.Sprintf("subtype %s does not implement the abstract type", st.Type)}
		}

		if st.Default {
			if b.def != nil {
				return nil, &errors.MissingDiscriminatorBindingError{AbstractType: name, Reason: fmt.Sprintf("more than one default subtype: %s and %s", b.def.Type, st.Type)}
			}
			def := st
			b.def = &def
		}

		if st.Value == "" {
			continue
		}

		if derived := instance.(Discriminated).DiscriminatorValue(); fold(derived) != fold(st.Value) {
			return nil, &errors.MissingDiscriminatorBindingError{AbstractType: name, Reason: fmt.Sprintf("subtype %s reports %q but is declared as %q", st.Type, derived, st.Value)}
		}

		key := fold(st.Value)
		if existing, ok := b.values[key]; ok {
			return nil, &errors.MissingDiscriminatorBindingError{AbstractType: name, Reason: fmt.Sprintf("discriminator value %q declared by both %s and %s", st.Value, existing.Type, st.Type)}
		}
		b.values[key] = st
		b.accepted = append(b.accepted, st.Value)
	}

	sort.Strings(b.accepted)

	return b, nil
}

// Accepted returns the declared discriminator values in sorted order.
func (b *Binding) Accepted() []string {
	return append([]string(nil), b.accepted...)
}

// HasDefault reports whether the abstract type declares a default subtype.
func (b *Binding) HasDefault() bool {
	return b.def != nil
}

// Select returns a new, empty instance of the variant selected by value.
// present reports whether the discriminator property was found at all.
func (b *Binding) Select(value string, present bool) (any, error) {
	if present {
		if st, ok := b.values[fold(value)]; ok {
			return st.New(), nil
		}
	}

	if b.def != nil {
		return b.def.New(), nil
	}

	if present && b.policy == RouteUnknownToExtension && b.extension != nil {
		ext := b.extension()
		ext.(ExtensionVariant).SetDiscriminatorValue(value)
		return ext, nil
	}

	return nil, &errors.UnknownDiscriminatorError{
		AbstractType: b.AbstractType.Name(),
		Property:     b.Property,
		Value:        value,
		Accepted:     b.Accepted(),
	}
}

// Decode selects the variant for node and decodes node into it.
// The discriminator property is looked up case-insensitively.
func (b *Binding) Decode(ctx context.Context, node *yaml.Node, decode DecodeFunc) (any, error) {
	node = yml.ResolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		kind := "null"
		if node != nil {
			kind = yml.NodeKindToString(node.Kind)
		}
		return nil, fmt.Errorf("%s must be an object, got %s", b.AbstractType.Name(), kind)
	}

	value := ""
	_, valueNode, present := yml.GetMapElementNodesFold(node, b.Property)
	if present {
		valueNode = yml.ResolveAlias(valueNode)
		if valueNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("[%d:%d] %s discriminator %q must be a string", valueNode.Line, valueNode.Column, b.AbstractType.Name(), b.Property)
		}
		value = valueNode.Value
	}

	instance, err := b.Select(value, present)
	if err != nil {
		return nil, err
	}

	if err := decode(ctx, node, instance); err != nil {
		return nil, err
	}

	// Decoding may have overwritten the routed value with whatever the variant itself captured.
	if ext, ok := instance.(ExtensionVariant); ok && present {
		ext.SetDiscriminatorValue(value)
	}

	return instance, nil
}

// ValueOf returns the discriminator value to write for instance.
func (b *Binding) ValueOf(instance any) (string, error) {
	d, ok := instance.(Discriminated)
	if !ok || !reflect.TypeOf(instance).Implements(b.AbstractType) {
		return "", fmt.Errorf("%T is not a variant of %s", instance, b.AbstractType.Name())
	}
	return d.DiscriminatorValue(), nil
}
