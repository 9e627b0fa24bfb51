package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Validate performs a strict structural check of every registered factory:
// the constructor must be a function taking a context first (and the input
// struct pointer second when NewInput is provided) and returning exactly one
// value plus an error. A mismatch is a programmer error caught at startup,
// before any configuration is resolved.
func (r *Registry) Validate() error {
	var errs []string

	for _, name := range r.Names() {
		f := r.factories[name]
		if f.Fn == nil {
			errs = append(errs, fmt.Sprintf("component %q: factory Fn is nil", name))
			continue
		}

		fnType := reflect.TypeOf(f.Fn)
		if fnType.Kind() != reflect.Func {
			errs = append(errs, fmt.Sprintf("component %q: Fn is %s, not a function", name, fnType.Kind()))
			continue
		}

		wantIn := 1
		if f.NewInput != nil {
			wantIn = 2
		}
		if fnType.NumIn() != wantIn {
			errs = append(errs, fmt.Sprintf("component %q: Fn takes %d arguments, want %d", name, fnType.NumIn(), wantIn))
			continue
		}
		if !fnType.In(0).Implements(contextType) {
			errs = append(errs, fmt.Sprintf("component %q: Fn's first argument must be context.Context", name))
		}
		if f.NewInput != nil {
			input := f.NewInput()
			if input == nil {
				errs = append(errs, fmt.Sprintf("component %q: NewInput returned nil", name))
			} else if got := reflect.TypeOf(input); got != fnType.In(1) {
				errs = append(errs, fmt.Sprintf("component %q: NewInput returns %s but Fn expects %s", name, got, fnType.In(1)))
			}
		}

		if fnType.NumOut() != 2 {
			errs = append(errs, fmt.Sprintf("component %q: Fn returns %d values, want (instance, error)", name, fnType.NumOut()))
			continue
		}
		if !fnType.Out(1).Implements(errorType) {
			errs = append(errs, fmt.Sprintf("component %q: Fn's second return value must be error", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
