package interp

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/mirceamironenco/tunekit/internal/cfgerr"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/document"
	"github.com/mirceamironenco/tunekit/internal/graph"
)

// refPattern matches one ${path} placeholder. The escape form $${...} is
// masked out before scanning.
var refPattern = regexp.MustCompile(`\$\{([a-zA-Z0-9_\-\.\[\]]+)\}`)

// escapeMask temporarily hides the escape sequence from the reference
// scanner. The rune is outside anything a config value legitimately holds.
const escapeMask = "\x00esc\x00"

// holder is one scalar string that contains at least one placeholder or
// escape sequence.
type holder struct {
	path  string
	value *document.Value
	refs  []string
}

// Resolve substitutes every interpolation reference in the document, in
// place. It fails with *cfgerr.UnknownReferenceError when a placeholder
// names a missing field and *cfgerr.CyclicReferenceError when references
// form a cycle.
func Resolve(ctx context.Context, doc *document.Document) error {
	logger := ctxlog.FromContext(ctx)

	holders := collectHolders(doc)
	if len(holders) == 0 {
		logger.Debug("No interpolation references found.")
		return nil
	}
	logger.Debug("Collected interpolation references.", "holders", len(holders))

	g := graph.New()
	for _, h := range holders {
		g.AddNode(h.path)
	}

	for _, h := range holders {
		for _, ref := range h.refs {
			if ref == h.path {
				return &cfgerr.CyclicReferenceError{Path: h.path, Cycle: []string{h.path, h.path}}
			}
			refPath, err := document.ParsePath(ref)
			if err != nil {
				return &cfgerr.UnknownReferenceError{Path: h.path, Ref: ref}
			}
			if _, err := doc.Lookup(refPath); err != nil {
				return &cfgerr.UnknownReferenceError{Path: h.path, Ref: ref}
			}

			// Depend on the referenced value itself when it carries
			// placeholders, and on every holder nested underneath it when it
			// is a container: the whole referenced subtree must be resolved
			// before this string is.
			for _, dep := range holders {
				if dep.path == ref || isUnder(dep.path, ref) {
					if err := g.AddEdge(dep.path, h.path); err != nil {
						return &cfgerr.CyclicReferenceError{Path: h.path, Cycle: []string{dep.path, h.path}}
					}
				}
			}
		}
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		if cyc, ok := err.(*graph.CycleError); ok {
			first := ""
			if len(cyc.Nodes) > 0 {
				first = cyc.Nodes[0]
			}
			return &cfgerr.CyclicReferenceError{Path: first, Cycle: cyc.Nodes}
		}
		return err
	}

	byPath := make(map[string]*holder, len(holders))
	for _, h := range holders {
		byPath[h.path] = h
	}

	for _, path := range order {
		h := byPath[path]
		if err := substitute(doc, h); err != nil {
			return err
		}
	}

	logger.Debug("Interpolation complete.", "substituted", len(holders))
	return nil
}

// collectHolders walks the document and returns every scalar string carrying
// a placeholder or escape sequence, with its canonical dotted path.
func collectHolders(doc *document.Document) []*holder {
	var holders []*holder
	walkMapping(doc.Root(), "", func(path string, v *document.Value) {
		if v.Kind() != document.KindScalar || v.Scalar().IsNull() || v.Scalar().Type() != cty.String {
			return
		}
		s := v.Scalar().AsString()
		if !strings.Contains(s, "${") {
			return
		}
		masked := strings.ReplaceAll(s, "$${", escapeMask)
		var refs []string
		for _, m := range refPattern.FindAllStringSubmatch(masked, -1) {
			refs = append(refs, m[1])
		}
		holders = append(holders, &holder{path: path, value: v, refs: refs})
	})
	return holders
}

func walkMapping(m *document.Mapping, prefix string, fn func(string, *document.Value)) {
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		walkValue(v, joinPath(prefix, key), fn)
	}
}

func walkValue(v *document.Value, path string, fn func(string, *document.Value)) {
	fn(path, v)
	switch v.Kind() {
	case document.KindList:
		for i, item := range v.List() {
			walkValue(item, fmt.Sprintf("%s[%d]", path, i), fn)
		}
	case document.KindMapping:
		walkMapping(v.Mapping(), path, fn)
	case document.KindComponent:
		walkMapping(v.Component().Args, path, fn)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isUnder reports whether path lies strictly inside the subtree rooted at
// ancestor.
func isUnder(path, ancestor string) bool {
	return strings.HasPrefix(path, ancestor+".") || strings.HasPrefix(path, ancestor+"[")
}

// substitute resolves one holder in place. All of its references are already
// resolved by topological ordering.
func substitute(doc *document.Document, h *holder) error {
	s := h.value.Scalar().AsString()
	masked := strings.ReplaceAll(s, "$${", escapeMask)

	var substErr error
	out := refPattern.ReplaceAllStringFunc(masked, func(match string) string {
		ref := refPattern.FindStringSubmatch(match)[1]
		refPath, _ := document.ParsePath(ref)
		target, err := doc.Lookup(refPath)
		if err != nil {
			substErr = &cfgerr.UnknownReferenceError{Path: h.path, Ref: ref}
			return match
		}
		text, err := scalarText(target)
		if err != nil {
			substErr = fmt.Errorf("interpolation at %s: %w", h.path, err)
			return match
		}
		return text
	})
	if substErr != nil {
		return substErr
	}

	out = strings.ReplaceAll(out, escapeMask, "${")
	h.value.SetScalar(cty.StringVal(out))
	return nil
}

// scalarText renders a referenced value for substitution. Only scalars
// substitute; splicing a list or mapping into a string has no sensible
// textual form.
func scalarText(v *document.Value) (string, error) {
	if v.Kind() != document.KindScalar {
		return "", fmt.Errorf("cannot embed a %s value into a string", v.Kind())
	}
	s := v.Scalar()
	if s.IsNull() {
		return "null", nil
	}
	switch s.Type() {
	case cty.String:
		return s.AsString(), nil
	case cty.Bool:
		if s.True() {
			return "true", nil
		}
		return "false", nil
	case cty.Number:
		bf := s.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return fmt.Sprintf("%d", i), nil
		}
		return bf.Text('g', -1), nil
	}
	return "", fmt.Errorf("cannot embed %s value into a string", s.Type().FriendlyName())
}
