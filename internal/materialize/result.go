package materialize

import (
	"errors"
	"fmt"
	"io"
)

// Built records one constructed component, in construction order.
type Built struct {
	// Path is the dotted path of the component spec in the document.
	Path string
	// Component is the fully-qualified component name.
	Component string
	// Instance is whatever the factory returned.
	Instance any
}

// Result is the materialized component graph: every top-level document
// field, mapped to either a live component instance or the plain resolved
// value.
type Result struct {
	order  []string
	fields map[string]any
	built  []Built
}

func newResult() *Result {
	return &Result{fields: make(map[string]any)}
}

func (r *Result) setField(name string, v any) {
	if _, ok := r.fields[name]; !ok {
		r.order = append(r.order, name)
	}
	r.fields[name] = v
}

func (r *Result) recordBuilt(path, component string, instance any) {
	r.built = append(r.built, Built{Path: path, Component: component, Instance: instance})
}

// Field returns the materialized value of a top-level field.
func (r *Result) Field(name string) (any, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns the top-level field names in document order.
func (r *Result) Fields() []string { return r.order }

// Components returns every constructed component in construction order
// (children before parents).
func (r *Result) Components() []Built { return r.built }

// Close releases every constructed component that implements io.Closer, in
// reverse construction order so parents close before the children they hold.
// All close errors are joined.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.built) - 1; i >= 0; i-- {
		if closer, ok := r.built[i].Instance.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", r.built[i].Path, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Field is a typed accessor over Result.Field. It fails when the field is
// absent or holds a different type, naming both.
func Field[T any](r *Result, name string) (T, error) {
	var zero T
	v, ok := r.fields[name]
	if !ok {
		return zero, fmt.Errorf("no field %q in materialized config", name)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("field %q is %T, not %T", name, v, zero)
	}
	return typed, nil
}

// OptionalField is like Field but an absent field returns the zero value
// with ok=false instead of an error.
func OptionalField[T any](r *Result, name string) (T, bool, error) {
	var zero T
	v, ok := r.fields[name]
	if !ok {
		return zero, false, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false, fmt.Errorf("field %q is %T, not %T", name, v, zero)
	}
	return typed, true, nil
}
