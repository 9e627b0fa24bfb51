// Package yamlload translates YAML recipe configurations into the
// format-agnostic document model. It works on the yaml.v3 node API rather
// than plain unmarshalling so that source positions survive into the
// document for error reporting, and so mapping key order is preserved.
//
// A mapping containing the reserved `_component_` key is promoted to a
// component spec; the remaining keys become the factory arguments.
package yamlload

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/mirceamironenco/tunekit/internal/cfgerr"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/document"
)

// Loader is the YAML implementation of the loader.Loader interface.
type Loader struct{}

// New creates a new YAML configuration loader.
func New() *Loader {
	return &Loader{}
}

// Extensions implements loader.Loader.
func (l *Loader) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// LoadFile parses one YAML file into a document.
func (l *Loader) LoadFile(ctx context.Context, path string) (*document.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing YAML config.", "file", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &cfgerr.ParseError{File: path, Err: err}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &cfgerr.ParseError{File: path, Err: err}
	}

	// An empty file decodes to a zero node; treat it as an empty document.
	if root.Kind == 0 || len(root.Content) == 0 {
		return document.New(document.NewEmptyMapping(), path), nil
	}

	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, &cfgerr.ParseError{
			File: path, Line: body.Line, Column: body.Column,
			Err: fmt.Errorf("top level must be a mapping, got %s", nodeKindName(body.Kind)),
		}
	}

	mapping, err := translateMapping(body, path, "")
	if err != nil {
		return nil, err
	}
	return document.New(mapping, path), nil
}

// FromString parses a standalone YAML fragment (as used for command-line
// override values) into a document value. The dotted path is only used for
// error reporting.
func FromString(raw, dotted string) (*document.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		return nil, &cfgerr.ParseError{Path: dotted, Err: err}
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return document.NewScalar(cty.NullVal(cty.DynamicPseudoType), document.SourceRange{}), nil
	}
	return translateNode(root.Content[0], "", dotted)
}

// translateMapping converts a YAML mapping node, promoting it to a component
// spec when the reserved key is present. dotted is the path prefix for error
// reporting.
func translateMapping(n *yaml.Node, file, dotted string) (*document.Mapping, error) {
	mapping := document.NewEmptyMapping()

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, &cfgerr.ParseError{
				File: file, Path: dotted, Line: keyNode.Line, Column: keyNode.Column,
				Err: fmt.Errorf("mapping keys must be scalars"),
			}
		}
		key := keyNode.Value
		if _, exists := mapping.Get(key); exists {
			return nil, &cfgerr.ParseError{
				File: file, Path: childPath(dotted, key), Line: keyNode.Line, Column: keyNode.Column,
				Err: fmt.Errorf("duplicate key %q", key),
			}
		}

		val, err := translateNode(valNode, file, childPath(dotted, key))
		if err != nil {
			return nil, err
		}
		mapping.Set(key, val)
	}

	return mapping, nil
}

// translateNode converts an arbitrary YAML node into a document value.
func translateNode(n *yaml.Node, file, dotted string) (*document.Value, error) {
	// Follow aliases transparently; the anchor's tree is copied into place.
	if n.Kind == yaml.AliasNode {
		return translateNode(n.Alias, file, dotted)
	}

	rng := document.SourceRange{File: file, Line: n.Line, Column: n.Column}

	switch n.Kind {
	case yaml.ScalarNode:
		scalar, err := scalarValue(n)
		if err != nil {
			return nil, &cfgerr.ParseError{File: file, Path: dotted, Line: n.Line, Column: n.Column, Err: err}
		}
		return document.NewScalar(scalar, rng), nil

	case yaml.SequenceNode:
		items := make([]*document.Value, 0, len(n.Content))
		for idx, item := range n.Content {
			v, err := translateNode(item, file, fmt.Sprintf("%s[%d]", dotted, idx))
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return document.NewList(items, rng), nil

	case yaml.MappingNode:
		mapping, err := translateMapping(n, file, dotted)
		if err != nil {
			return nil, err
		}
		if nameVal, ok := mapping.Get(document.ComponentKey); ok {
			if nameVal.Kind() != document.KindScalar || nameVal.Scalar().Type() != cty.String {
				return nil, &cfgerr.ParseError{
					File: file, Path: childPath(dotted, document.ComponentKey), Line: n.Line, Column: n.Column,
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
			File: file, Path: dotted, Line: n.Line, Column: n.Column,
			Err: fmt.Errorf("unsupported YAML node kind %s", nodeKindName(n.Kind)),
		}
	}
}

// scalarValue maps a YAML scalar node onto a typed cty value using the
// resolved tag.
func scalarValue(n *yaml.Node) (cty.Value, error) {
	switch n.Tag {
	case "!!null", "":
		return cty.NullVal(cty.DynamicPseudoType), nil
	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(n.Value))
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid bool %q", n.Value)
		}
		return cty.BoolVal(b), nil
	case "!!int", "!!float":
		num, err := cty.ParseNumberVal(n.Value)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid number %q", n.Value)
		}
		return num, nil
	case "!!str":
		return cty.StringVal(n.Value), nil
	default:
		// Timestamps, binary, and custom tags carry through as strings.
		return cty.StringVal(n.Value), nil
	}
}

func childPath(dotted, key string) string {
	if dotted == "" {
		return key
	}
	return dotted + "." + key
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
