package materialize

import (
	"fmt"
	"reflect"
	"strings"
)

// decodeArgs populates a factory input struct from the materialized argument
// map. Fields are matched by their `cfg` tag; a field without the
// ",optional" flag must be present in the arguments. Unknown argument keys
// are rejected so typos surface instead of silently vanishing.
func decodeArgs(args map[string]any, input any) error {
	ptr := reflect.ValueOf(input)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("factory input must be a struct pointer, got %T", input)
	}
	target := ptr.Elem()
	targetType := target.Type()

	known := make(map[string]struct{}, targetType.NumField())

	for i := 0; i < targetType.NumField(); i++ {
		fieldDef := targetType.Field(i)
		fieldVal := target.Field(i)
		if !fieldDef.IsExported() || !fieldVal.CanSet() {
			continue
		}

		tag := fieldDef.Tag.Get("cfg")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		optional := strings.Contains(tag, ",optional")
		known[name] = struct{}{}

		raw, present := args[name]
		if !present || raw == nil {
			if !optional {
				return fmt.Errorf("missing required argument %q", name)
			}
			continue
		}

		if err := assign(fieldVal, raw); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
	}

	for key := range args {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("unknown argument %q", key)
		}
	}
	return nil
}

// assign converts a materialized value into the target field. Scalars map
// onto the usual Go kinds; maps decode into map fields or nested structs;
// anything else (component instances in particular) must be directly
// assignable.
func assign(field reflect.Value, raw any) error {
	rawVal := reflect.ValueOf(raw)

	// Direct assignability covers component instances and interface fields.
	if rawVal.Type().AssignableTo(field.Type()) {
		field.Set(rawVal)
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return typeMismatch(field, raw)
		}
		field.SetString(s)
		return nil

	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return typeMismatch(field, raw)
		}
		field.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := raw.(int64)
		if !ok {
			return typeMismatch(field, raw)
		}
		if field.OverflowInt(i) {
			return fmt.Errorf("value %d overflows %s", i, field.Type())
		}
		field.SetInt(i)
		return nil

	case reflect.Float32, reflect.Float64:
		switch n := raw.(type) {
		case float64:
			field.SetFloat(n)
		case int64:
			field.SetFloat(float64(n))
		default:
			return typeMismatch(field, raw)
		}
		return nil

	case reflect.Slice:
		items, ok := raw.([]any)
		if !ok {
			return typeMismatch(field, raw)
		}
		out := reflect.MakeSlice(field.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		field.Set(out)
		return nil

	case reflect.Map:
		m, ok := raw.(map[string]any)
		if !ok {
			return typeMismatch(field, raw)
		}
		if field.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("map fields must be string-keyed, got %s", field.Type())
		}
		out := reflect.MakeMapWithSize(field.Type(), len(m))
		for k, item := range m {
			elem := reflect.New(field.Type().Elem()).Elem()
			if err := assign(elem, item); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k), elem)
		}
		field.Set(out)
		return nil

	case reflect.Pointer:
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		field.Set(elem)
		return nil

	case reflect.Struct:
		m, ok := raw.(map[string]any)
		if !ok {
			return typeMismatch(field, raw)
		}
		return decodeArgs(m, field.Addr().Interface())
	}

	return typeMismatch(field, raw)
}

func typeMismatch(field reflect.Value, raw any) error {
	return fmt.Errorf("cannot decode %T into %s", raw, field.Type())
}
