package document

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// ComponentKey is the reserved mapping key that promotes a mapping to a
// component spec in the YAML syntax, and the key used when rendering a
// component back to text.
const ComponentKey = "_component_"

// Native converts a value tree into plain Go values: string, int64, float64,
// bool, nil, []any, and map[string]any. Components render as a map with the
// reserved component key first. Mapping order is lost; Native is for
// consumers that don't care about rendering.
func Native(v *Value) any {
	switch v.Kind() {
	case KindScalar:
		return nativeScalar(v.Scalar())
	case KindList:
		out := make([]any, len(v.List()))
		for i, item := range v.List() {
			out[i] = Native(item)
		}
		return out
	case KindMapping:
		out := make(map[string]any, v.Mapping().Len())
		for _, k := range v.Mapping().Keys() {
			item, _ := v.Mapping().Get(k)
			out[k] = Native(item)
		}
		return out
	case KindComponent:
		spec := v.Component()
		out := make(map[string]any, spec.Args.Len()+1)
		out[ComponentKey] = spec.Name
		for _, k := range spec.Args.Keys() {
			item, _ := spec.Args.Get(k)
			out[k] = Native(item)
		}
		return out
	}
	return nil
}

// nativeScalar unwraps a cty scalar into the closest Go value. Whole numbers
// come back as int64.
func nativeScalar(s cty.Value) any {
	if s.IsNull() {
		return nil
	}
	switch s.Type() {
	case cty.String:
		return s.AsString()
	case cty.Bool:
		return s.True()
	case cty.Number:
		bf := s.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return i
		}
		f, _ := bf.Float64()
		return f
	}
	return nil
}

// Render serializes the document into a stable, YAML-like text form used by
// validate-only output and tests. Keys keep document order.
func Render(d *Document) string {
	var sb strings.Builder
	renderMapping(&sb, d.root, 0)
	return sb.String()
}

func renderMapping(sb *strings.Builder, m *Mapping, depth int) {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		renderEntry(sb, k, v, depth)
	}
}

func renderEntry(sb *strings.Builder, key string, v *Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind() {
	case KindScalar:
		fmt.Fprintf(sb, "%s%s: %s\n", indent, key, renderScalar(v.Scalar()))
	case KindList:
		if len(v.List()) == 0 {
			fmt.Fprintf(sb, "%s%s: []\n", indent, key)
			return
		}
		fmt.Fprintf(sb, "%s%s:\n", indent, key)
		for _, item := range v.List() {
			renderListItem(sb, item, depth+1)
		}
	case KindMapping:
		fmt.Fprintf(sb, "%s%s:\n", indent, key)
		renderMapping(sb, v.Mapping(), depth+1)
	case KindComponent:
		spec := v.Component()
		fmt.Fprintf(sb, "%s%s:\n", indent, key)
		fmt.Fprintf(sb, "%s  %s: %s\n", indent, ComponentKey, spec.Name)
		renderMapping(sb, spec.Args, depth+1)
	}
}

func renderListItem(sb *strings.Builder, v *Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind() {
	case KindScalar:
		fmt.Fprintf(sb, "%s- %s\n", indent, renderScalar(v.Scalar()))
	case KindList:
		fmt.Fprintf(sb, "%s- # nested list\n", indent)
		for _, item := range v.List() {
			renderListItem(sb, item, depth+1)
		}
	case KindMapping:
		fmt.Fprintf(sb, "%s-\n", indent)
		renderMapping(sb, v.Mapping(), depth+1)
	case KindComponent:
		spec := v.Component()
		fmt.Fprintf(sb, "%s-\n", indent)
		fmt.Fprintf(sb, "%s  %s: %s\n", indent, ComponentKey, spec.Name)
		renderMapping(sb, spec.Args, depth+1)
	}
}

func renderScalar(s cty.Value) string {
	if s.IsNull() {
		return "null"
	}
	switch s.Type() {
	case cty.String:
		return fmt.Sprintf("%q", s.AsString())
	case cty.Bool:
		if s.True() {
			return "true"
		}
		return "false"
	case cty.Number:
		return formatNumber(s.AsBigFloat())
	}
	return "?"
}

func formatNumber(bf *big.Float) string {
	if bf.IsInt() {
		i, _ := bf.Int64()
		return fmt.Sprintf("%d", i)
	}
	f, _ := bf.Float64()
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", f), "0"), ".")
}

// SortedKeys returns the mapping keys in lexical order. Handy for
// deterministic log output.
func SortedKeys(m *Mapping) []string {
	out := make([]string, len(m.Keys()))
	copy(out, m.Keys())
	sort.Strings(out)
	return out
}
