package document

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentPattern parses one segment of a dotted path, e.g. `name` or `name[1]`.
var segmentPattern = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(?:\[(\d+)\])?$`)

// Segment is a single component of a dotted path: a mapping key, optionally
// followed by a list index.
type Segment struct {
	Key   string
	Index int // -1 means no index.
}

// HasIndex reports whether the segment carries a list index.
func (s Segment) HasIndex() bool { return s.Index != -1 }

// Path is the structured form of a dotted path like
// `model.lora_attn_modules[1]`.
type Path []Segment

// ParsePath parses the canonical dotted string form of a path.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	var path Path
	for _, segmentStr := range strings.Split(raw, ".") {
		if segmentStr == "" {
			return nil, fmt.Errorf("path %q contains an empty segment", raw)
		}

		matches := segmentPattern.FindStringSubmatch(segmentStr)
		if matches == nil {
			return nil, fmt.Errorf("invalid path segment %q in %q", segmentStr, raw)
		}

		segment := Segment{Key: matches[1], Index: -1}
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				// Unreachable due to the `\d+` in the pattern.
				return nil, fmt.Errorf("internal error parsing index: %w", err)
			}
			segment.Index = index
		}
		path = append(path, segment)
	}

	return path, nil
}

// String serializes the path back into its canonical dotted form.
func (p Path) String() string {
	var sb strings.Builder
	for i, segment := range p {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Key)
		if segment.HasIndex() {
			fmt.Fprintf(&sb, "[%d]", segment.Index)
		}
	}
	return sb.String()
}

// Parent returns the path minus its last segment, or nil for a single-segment
// path. A trailing index belongs to the last segment, so the parent of
// `a.b[0]` is `a`, not `a.b`.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1]
}

// Child returns a new path with an extra key segment appended.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Key: key, Index: -1})
}

// ChildIndex returns a new path whose last segment key is extended with a
// list index.
func (p Path) ChildIndex(key string, index int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Key: key, Index: index})
}
