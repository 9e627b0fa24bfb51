package document

import (
	"fmt"
)

// Document is a single parsed configuration: the top-level mapping plus
// source metadata.
type Document struct {
	root *Mapping

	// Files lists the source files the document was loaded from, in load
	// order. Informational only.
	Files []string
}

// New wraps a top-level mapping in a Document.
func New(root *Mapping, files ...string) *Document {
	return &Document{root: root, Files: files}
}

// Root returns the top-level mapping.
func (d *Document) Root() *Mapping { return d.root }

// Copy returns a deep copy of the document.
func (d *Document) Copy() *Document {
	files := make([]string, len(d.Files))
	copy(files, d.Files)
	return &Document{root: d.root.Copy(), Files: files}
}

// Equal reports deep equality of two documents, including key order.
func (d *Document) Equal(other *Document) bool {
	return d.root.Equal(other.root)
}

// Lookup resolves a dotted path to the value it addresses. It descends
// through mappings, component argument mappings, and list indices.
func (d *Document) Lookup(path Path) (*Value, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty path")
	}

	var current *Value
	container := d.root
	for i, segment := range path {
		if container == nil {
			return nil, fmt.Errorf("path %s: %s is not a mapping", path, path[:i])
		}
		v, ok := container.Get(segment.Key)
		if !ok {
			return nil, fmt.Errorf("path %s: no field %q", path, path[:i+1])
		}
		if segment.HasIndex() {
			if v.Kind() != KindList {
				return nil, fmt.Errorf("path %s: %s is not a list", path, path[:i+1].String())
			}
			items := v.List()
			if segment.Index >= len(items) {
				return nil, fmt.Errorf("path %s: index %d out of range (len %d)", path, segment.Index, len(items))
			}
			v = items[segment.Index]
		}
		current = v
		container = childMapping(v)
	}
	return current, nil
}

// LookupParent resolves the mapping that holds (or would hold) the final
// segment of the path. For a single-segment path that is the root mapping.
// The boolean reports whether the parent is a component argument mapping,
// which is closed to new keys unless explicitly forced.
func (d *Document) LookupParent(path Path) (*Mapping, bool, error) {
	if len(path) == 0 {
		return nil, false, fmt.Errorf("empty path")
	}
	if len(path) == 1 {
		return d.root, false, nil
	}

	parent, err := d.Lookup(path.Parent())
	if err != nil {
		return nil, false, err
	}
	switch parent.Kind() {
	case KindMapping:
		return parent.Mapping(), false, nil
	case KindComponent:
		return parent.Component().Args, true, nil
	default:
		return nil, false, fmt.Errorf("path %s: %s is a %s, not a mapping", path, path.Parent(), parent.Kind())
	}
}

// childMapping returns the mapping to descend into for the next path
// segment, or nil when the value has no keyed children.
func childMapping(v *Value) *Mapping {
	switch v.Kind() {
	case KindMapping:
		return v.Mapping()
	case KindComponent:
		return v.Component().Args
	default:
		return nil
	}
}
