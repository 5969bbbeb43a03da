// Package discriminator binds abstract model types to their concrete variants through a
// discriminator property carried in the document, such as a workflow state's "type".
package discriminator

import (
	"reflect"
	"sort"
	"sync"

	"github.com/speakeasy-api/serverlessworkflow/errors"
)

// DefaultValue marks a subtype as the fallback used when the discriminator property is absent
// or does not match any declared value.
const DefaultValue = "default"

// Discriminated is implemented by every concrete variant of an abstract type.
// Abstract types are interfaces that embed it, so the discriminator of any instance can be derived.
type Discriminated interface {
	DiscriminatorValue() string
}

// ExtensionVariant is a variant able to carry any discriminator value.
// It is only selected when a Cache is configured with RouteUnknownToExtension.
type ExtensionVariant interface {
	Discriminated
	SetDiscriminatorValue(value string)
}

// Subtype declares one concrete variant of an abstract type.
type Subtype struct {
	// Value is the discriminator value selecting this subtype, matched case-insensitively.
	// It may be empty for a subtype that is only ever selected as the default.
	Value   string
	Default bool
	Type    reflect.Type
	New     func() any
}

// Variant declares a subtype selected by value.
// Passing DefaultValue declares a subtype that is only selected as the fallback.
func Variant[T any](value string, factory func() T) Subtype {
	st := Subtype{
		Value: value,
		Type:  reflect.TypeOf((*T)(nil)).Elem(),
		New:   func() any { return factory() },
	}
	if value == DefaultValue {
		st.Value = ""
		st.Default = true
	}
	return st
}

// DefaultVariant declares a subtype selected by value that is also the fallback.
func DefaultVariant[T any](value string, factory func() T) Subtype {
	st := Variant(value, factory)
	st.Default = true
	return st
}

// Declaration is the discriminator configuration of a single abstract type.
type Declaration struct {
	AbstractType reflect.Type
	Property     string
	Subtypes     []Subtype
	Extension    func() any
}

// Universe is the closed set of abstract types and their variants known to a program.
type Universe struct {
	mu           sync.RWMutex
	declarations map[reflect.Type]*Declaration
}

var defaultUniverse = NewUniverse()

// NewUniverse creates an empty Universe.
func NewUniverse() *Universe {
	return &Universe{declarations: map[reflect.Type]*Declaration{}}
}

// DefaultUniverse returns the process wide universe that model packages declare into from init().
func DefaultUniverse() *Universe {
	return defaultUniverse
}

// Declare registers the discriminator property and variants of the abstract type T.
// Declaring the same type again replaces the previous declaration.
// Declarations are checked by Validate, or when a Binding is first built.
func Declare[T any](u *Universe, property string, subtypes ...Subtype) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	u.mu.Lock()
	defer u.mu.Unlock()

	decl := &Declaration{
		AbstractType: typ,
		Property:     property,
		Subtypes:     append([]Subtype(nil), subtypes...),
	}
	if existing, ok := u.declarations[typ]; ok {
		decl.Extension = existing.Extension
	}
	u.declarations[typ] = decl
}

// DeclareExtension registers the variant used for unknown discriminator values of T
// when unknown values are routed rather than rejected.
func DeclareExtension[T any, E ExtensionVariant](u *Universe, factory func() E) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	u.mu.Lock()
	defer u.mu.Unlock()

	decl, ok := u.declarations[typ]
	if !ok {
		decl = &Declaration{AbstractType: typ}
		u.declarations[typ] = decl
	}
	decl.Extension = func() any { return factory() }
}

// Lookup returns a copy of the declaration for typ.
func (u *Universe) Lookup(typ reflect.Type) (Declaration, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	decl, ok := u.declarations[typ]
	if !ok {
		return Declaration{}, false
	}
	return *decl, true
}

// Validate builds a binding for every declaration and returns the failures joined, each a
// *errors.MissingDiscriminatorBindingError. Model packages call it once their declarations are
// complete so a broken declaration fails at startup rather than on the first document.
func (u *Universe) Validate() error {
	u.mu.RLock()
	decls := make([]Declaration, 0, len(u.declarations))
	for _, decl := range u.declarations {
		decls = append(decls, *decl)
	}
	u.mu.RUnlock()

	sort.Slice(decls, func(i, j int) bool {
		return decls[i].AbstractType.String() < decls[j].AbstractType.String()
	})

	var errs []error
	for _, decl := range decls {
		if _, err := buildBinding(decl, RejectUnknown); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
