package materialize

import (
	"context"
	"fmt"
	"reflect"

	"github.com/mirceamironenco/tunekit/internal/cfgerr"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/document"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// Materializer instantiates component specs against a registry.
type Materializer struct {
	reg *registry.Registry
}

// New creates a Materializer backed by the given registry.
func New(reg *registry.Registry) *Materializer {
	return &Materializer{reg: reg}
}

// Materialize walks the resolved document and instantiates every component
// spec, children before parents. On error the partially-built Result is
// returned alongside it; the caller owns (and must release) everything in
// it.
func (m *Materializer) Materialize(ctx context.Context, doc *document.Document) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	result := newResult()

	for _, key := range doc.Root().Keys() {
		v, _ := doc.Root().Get(key)
		built, err := m.materializeValue(ctx, v, key, result)
		if err != nil {
			return result, err
		}
		result.setField(key, built)
	}

	logger.Debug("Materialization complete.", "fields", len(result.Fields()), "components", len(result.Components()))
	return result, nil
}

// materializeValue converts one document value into its live form: scalars
// and containers become plain Go values, component specs become instances.
func (m *Materializer) materializeValue(ctx context.Context, v *document.Value, path string, result *Result) (any, error) {
	switch v.Kind() {
	case document.KindScalar:
		return document.Native(v), nil

	case document.KindList:
		items := make([]any, len(v.List()))
		for i, item := range v.List() {
			built, err := m.materializeValue(ctx, item, fmt.Sprintf("%s[%d]", path, i), result)
			if err != nil {
				return nil, err
			}
			items[i] = built
		}
		return items, nil

	case document.KindMapping:
		out := make(map[string]any, v.Mapping().Len())
		for _, k := range v.Mapping().Keys() {
			item, _ := v.Mapping().Get(k)
			built, err := m.materializeValue(ctx, item, path+"."+k, result)
			if err != nil {
				return nil, err
			}
			out[k] = built
		}
		return out, nil

	case document.KindComponent:
		return m.construct(ctx, v.Component(), path, result)
	}

	return nil, fmt.Errorf("unsupported value kind at %s", path)
}

// construct instantiates a single component spec. Its argument mapping is
// materialized first, so nested specs arrive at the factory as live
// instances.
func (m *Materializer) construct(ctx context.Context, spec *document.ComponentSpec, path string, result *Result) (any, error) {
	logger := ctxlog.FromContext(ctx).With("component", spec.Name, "path", path)

	factory, ok := m.reg.Lookup(spec.Name)
	if !ok {
		return nil, &cfgerr.UnknownComponentError{Path: path, Component: spec.Name}
	}

	args := make(map[string]any, spec.Args.Len())
	for _, k := range spec.Args.Keys() {
		item, _ := spec.Args.Get(k)
		built, err := m.materializeValue(ctx, item, path+"."+k, result)
		if err != nil {
			return nil, err
		}
		args[k] = built
	}

	fn := reflect.ValueOf(factory.Fn)
	callArgs := []reflect.Value{reflect.ValueOf(ctx)}

	if factory.NewInput != nil {
		input := factory.NewInput()
		if err := decodeArgs(args, input); err != nil {
			return nil, &cfgerr.ConstructionError{Path: path, Component: spec.Name, Err: err}
		}
		callArgs = append(callArgs, reflect.ValueOf(input))
	} else if len(args) > 0 {
		return nil, &cfgerr.ConstructionError{
			Path: path, Component: spec.Name,
			Err: fmt.Errorf("component takes no arguments, got %d", len(args)),
		}
	}

	logger.Debug("Constructing component.")
	results := fn.Call(callArgs)
	if errVal := results[1].Interface(); errVal != nil {
		return nil, &cfgerr.ConstructionError{Path: path, Component: spec.Name, Err: errVal.(error)}
	}

	instance := results[0].Interface()
	result.recordBuilt(path, spec.Name, instance)
	logger.Debug("Component constructed.")
	return instance, nil
}
