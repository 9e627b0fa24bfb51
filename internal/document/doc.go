// Package document defines the format-agnostic representation of a recipe
// configuration: a tree of scalars, lists, mappings, and component specs.
// Concrete loaders (YAML, HCL) translate their syntax into this model; the
// override, interpolation, and materialization stages all operate on it.
//
// A Document is parsed once per invocation, mutated in place by command-line
// overrides, and then consumed read-only by materialization. Mapping key
// order is preserved for rendering and error reporting only; materialization
// order is determined by dependency, never by document order.
package document
