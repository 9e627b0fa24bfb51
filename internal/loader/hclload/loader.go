// Package hclload translates HCL recipe configurations into the
// format-agnostic document model. Top-level attributes become plain fields;
// a block with a single label becomes a component spec whose name is the
// label, e.g.
//
//	model "models.lora_llama2_7b" {
//	  lora_rank  = 8
//	  lora_alpha = 16
//	}
//
// Attribute expressions are evaluated as literals; cross-field references
// use the same ${...} interpolation strings as the YAML syntax, resolved by
// the interpolation stage, not by HCL.
package hclload

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/mirceamironenco/tunekit/internal/cfgerr"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/document"
)

// Loader is the HCL implementation of the loader.Loader interface.
type Loader struct{}

// New creates a new HCL configuration loader.
func New() *Loader {
	return &Loader{}
}

// Extensions implements loader.Loader.
func (l *Loader) Extensions() []string {
	return []string{".hcl"}
}

// LoadFile parses one HCL file into a document.
func (l *Loader) LoadFile(ctx context.Context, path string) (*document.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing HCL config.", "file", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, parseErr(path, "", diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, &cfgerr.ParseError{File: path, Err: fmt.Errorf("unexpected body type %T", file.Body)}
	}

	mapping, err := l.translateBody(body, path, "")
	if err != nil {
		return nil, err
	}
	return document.New(mapping, path), nil
}

// translateBody converts an HCL body (attributes plus blocks) into a
// mapping, preserving source order.
func (l *Loader) translateBody(body *hclsyntax.Body, file, dotted string) (*document.Mapping, error) {
	mapping := document.NewEmptyMapping()

	type entry struct {
		key   string
		value *document.Value
		line  int
	}
	var entries []entry

	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, parseErr(file, childPath(dotted, name), diags)
		}
		dv, err := ctyToValue(val, file, childPath(dotted, name), attr.SrcRange)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: name, value: dv, line: attr.SrcRange.Start.Line})
	}

	for _, block := range body.Blocks {
		rng := document.SourceRange{File: file, Line: block.TypeRange.Start.Line, Column: block.TypeRange.Start.Column}
		args, err := l.translateBody(block.Body, file, childPath(dotted, block.Type))
		if err != nil {
			return nil, err
		}

		var dv *document.Value
		switch len(block.Labels) {
		case 0:
			dv = document.NewMapping(args, rng)
		case 1:
			dv = document.NewComponent(&document.ComponentSpec{Name: block.Labels[0], Args: args}, rng)
		default:
			return nil, &cfgerr.ParseError{
				File: file, Path: childPath(dotted, block.Type), Line: block.TypeRange.Start.Line,
				Err: fmt.Errorf("blocks take at most one label (the component name), got %d", len(block.Labels)),
			}
		}

		entries = append(entries, entry{key: block.Type, value: dv, line: block.TypeRange.Start.Line})
	}

	// The attribute map is unordered; restore source order by line.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].line < entries[j].line })
	for _, e := range entries {
		if _, exists := mapping.Get(e.key); exists {
			return nil, &cfgerr.ParseError{
				File: file, Path: childPath(dotted, e.key), Line: e.line,
				Err: fmt.Errorf("duplicate field %q", e.key),
			}
		}
		mapping.Set(e.key, e.value)
	}

	return mapping, nil
}

// ctyToValue converts an evaluated literal cty value into a document value.
func ctyToValue(val cty.Value, file, dotted string, src hcl.Range) (*document.Value, error) {
	rng := document.SourceRange{File: file, Line: src.Start.Line, Column: src.Start.Column}

	if val.IsNull() {
		return document.NewScalar(cty.NullVal(cty.DynamicPseudoType), rng), nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String || ty == cty.Number || ty == cty.Bool:
		return document.NewScalar(val, rng), nil

	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var items []*document.Value
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			item, err := ctyToValue(ev, file, dotted, src)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return document.NewList(items, rng), nil

	case ty.IsObjectType() || ty.IsMapType():
		attrs := val.AsValueMap()
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		mapping := document.NewEmptyMapping()
		for _, k := range keys {
			item, err := ctyToValue(attrs[k], file, childPath(dotted, k), src)
			if err != nil {
				return nil, err
			}
			mapping.Set(k, item)
		}
		// Object expressions may also declare components inline.
		if nameVal, ok := mapping.Get(document.ComponentKey); ok {
			if nameVal.Kind() != document.KindScalar || nameVal.Scalar().Type() != cty.String {
				return nil, &cfgerr.ParseError{
					File: file, Path: childPath(dotted, document.ComponentKey), Line: src.Start.Line,
					Err: fmt.Errorf("%s must be a string", document.ComponentKey),
				}
			}
			name := nameVal.Scalar().AsString()
			mapping.Delete(document.ComponentKey)
			return document.NewComponent(&document.ComponentSpec{Name: name, Args: mapping}, rng), nil
		}
		return document.NewMapping(mapping, rng), nil

	default:
		return nil, &cfgerr.ParseError{
			File: file, Path: dotted, Line: src.Start.Line,
			Err: fmt.Errorf("unsupported value type %s", ty.FriendlyName()),
		}
	}
}

func parseErr(file, dotted string, diags hcl.Diagnostics) error {
	pe := &cfgerr.ParseError{File: file, Path: dotted, Err: diags}
	if len(diags) > 0 && diags[0].Subject != nil {
		pe.Line = diags[0].Subject.Start.Line
		pe.Column = diags[0].Subject.Start.Column
	}
	return pe
}

func childPath(dotted, key string) string {
	if dotted == "" {
		return key
	}
	return dotted + "." + key
}
