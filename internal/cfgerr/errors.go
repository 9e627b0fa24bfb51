package cfgerr

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed configuration document. It carries the file
// and position when the underlying parser provides them.
type ParseError struct {
	File   string
	Path   string
	Line   int
	Column int
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("parse error")
	if e.File != "" {
		fmt.Fprintf(&sb, " in %s", e.File)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
			if e.Column > 0 {
				fmt.Fprintf(&sb, ":%d", e.Column)
			}
		}
	}
	if e.Path != "" {
		fmt.Fprintf(&sb, " at %s", e.Path)
	}
	fmt.Fprintf(&sb, ": %v", e.Err)
	return sb.String()
}

// Unwrap exposes the underlying parser failure.
func (e *ParseError) Unwrap() error { return e.Err }

// OverrideTypeError reports a command-line override whose raw value could not
// be coerced to the type of the existing value, or whose path does not exist
// in a mapping that disallows new keys.
type OverrideTypeError struct {
	Path     string
	Raw      string
	Expected string
	Reason   string
}

// Error implements the error interface.
func (e *OverrideTypeError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("override %s=%q: %s (expected %s)", e.Path, e.Raw, e.Reason, e.Expected)
	}
	return fmt.Sprintf("override %s=%q: %s", e.Path, e.Raw, e.Reason)
}

// CyclicReferenceError reports an interpolation cycle. Cycle holds the dotted
// paths participating in the cycle, in reference order.
type CyclicReferenceError struct {
	Path  string
	Cycle []string
}

// Error implements the error interface.
func (e *CyclicReferenceError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("cyclic interpolation reference at %s: %s", e.Path, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("cyclic interpolation reference at %s", e.Path)
}

// UnknownReferenceError reports an interpolation placeholder whose target
// path does not exist in the document.
type UnknownReferenceError struct {
	Path string
	Ref  string
}

// Error implements the error interface.
func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("interpolation at %s references unknown field %q", e.Path, e.Ref)
}

// UnknownComponentError reports a component spec whose fully-qualified name
// is not present in the registry at materialization time.
type UnknownComponentError struct {
	Path      string
	Component string
}

// Error implements the error interface.
func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unknown component %q at %s", e.Component, e.Path)
}

// ConstructionError wraps a failure raised by a component factory during
// materialization.
type ConstructionError struct {
	Path      string
	Component string
	Err       error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing %q at %s: %v", e.Component, e.Path, e.Err)
}

// Unwrap exposes the factory's failure.
func (e *ConstructionError) Unwrap() error { return e.Err }
