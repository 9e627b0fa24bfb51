package document

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	// KindScalar is a typed leaf value: string, number, bool, or null.
	KindScalar Kind = iota
	// KindList is an ordered sequence of values.
	KindList
	// KindMapping is an insertion-ordered key/value collection.
	KindMapping
	// KindComponent is a component spec: a fully-qualified component name
	// plus its argument mapping.
	KindComponent
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	case KindComponent:
		return "component"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SourceRange records where a value came from in the original text, for
// error reporting. Line and Column are 1-based; zero means unknown.
type SourceRange struct {
	File   string
	Line   int
	Column int
}

// ComponentSpec is a declarative node naming a constructible component and
// the arguments for its factory.
type ComponentSpec struct {
	// Name is the fully-qualified component name, e.g. "models.lora_llama2_7b".
	Name string
	// Args holds the factory arguments. Values may nest further component
	// specs, which are materialized before this one.
	Args *Mapping
}

// Value is one node of a configuration document.
type Value struct {
	kind      Kind
	scalar    cty.Value
	list      []*Value
	mapping   *Mapping
	component *ComponentSpec
	rng       SourceRange
}

// NewScalar wraps a cty scalar. The caller is expected to pass only
// cty.String, cty.Number, cty.Bool, or a null value.
func NewScalar(v cty.Value, rng SourceRange) *Value {
	return &Value{kind: KindScalar, scalar: v, rng: rng}
}

// NewList wraps an ordered sequence of values.
func NewList(items []*Value, rng SourceRange) *Value {
	return &Value{kind: KindList, list: items, rng: rng}
}

// NewMapping wraps a mapping node.
func NewMapping(m *Mapping, rng SourceRange) *Value {
	return &Value{kind: KindMapping, mapping: m, rng: rng}
}

// NewComponent wraps a component spec node.
func NewComponent(spec *ComponentSpec, rng SourceRange) *Value {
	return &Value{kind: KindComponent, component: spec, rng: rng}
}

// Kind reports the variant of the value.
func (v *Value) Kind() Kind { return v.kind }

// Range reports where the value appeared in the source text.
func (v *Value) Range() SourceRange { return v.rng }

// Scalar returns the underlying cty value. It panics if the value is not a
// scalar; callers check Kind first.
func (v *Value) Scalar() cty.Value {
	if v.kind != KindScalar {
		panic(fmt.Sprintf("document: Scalar called on %s value", v.kind))
	}
	return v.scalar
}

// SetScalar replaces the underlying scalar in place. Used by the override
// and interpolation stages.
func (v *Value) SetScalar(s cty.Value) {
	if v.kind != KindScalar {
		panic(fmt.Sprintf("document: SetScalar called on %s value", v.kind))
	}
	v.scalar = s
}

// List returns the element slice. It panics if the value is not a list.
func (v *Value) List() []*Value {
	if v.kind != KindList {
		panic(fmt.Sprintf("document: List called on %s value", v.kind))
	}
	return v.list
}

// Mapping returns the underlying mapping. It panics if the value is not a
// mapping.
func (v *Value) Mapping() *Mapping {
	if v.kind != KindMapping {
		panic(fmt.Sprintf("document: Mapping called on %s value", v.kind))
	}
	return v.mapping
}

// Component returns the underlying component spec. It panics if the value is
// not a component.
func (v *Value) Component() *ComponentSpec {
	if v.kind != KindComponent {
		panic(fmt.Sprintf("document: Component called on %s value", v.kind))
	}
	return v.component
}

// Replace overwrites this value in place with the content of other. The
// override applier uses this so that parent containers never need to be
// rewired.
func (v *Value) Replace(other *Value) {
	v.kind = other.kind
	v.scalar = other.scalar
	v.list = other.list
	v.mapping = other.mapping
	v.component = other.component
}

// Copy returns a deep copy of the value. Source ranges are shared; they are
// immutable.
func (v *Value) Copy() *Value {
	out := &Value{kind: v.kind, rng: v.rng}
	switch v.kind {
	case KindScalar:
		out.scalar = v.scalar
	case KindList:
		out.list = make([]*Value, len(v.list))
		for i, item := range v.list {
			out.list[i] = item.Copy()
		}
	case KindMapping:
		out.mapping = v.mapping.Copy()
	case KindComponent:
		out.component = &ComponentSpec{Name: v.component.Name, Args: v.component.Args.Copy()}
	}
	return out
}

// Equal reports deep structural equality between two values. Scalars compare
// by cty value equality, so the number 1 and the string "1" are not equal.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar.RawEquals(other.scalar)
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return v.mapping.Equal(other.mapping)
	case KindComponent:
		return v.component.Name == other.component.Name && v.component.Args.Equal(other.component.Args)
	}
	return false
}
