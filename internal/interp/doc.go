// Package interp resolves ${path} interpolation references inside scalar
// strings, after overrides have been applied and before materialization.
//
// A reference graph is built over every string containing a placeholder and
// checked for cycles; substitution then proceeds in topological order, so a
// referenced field is always fully resolved before anything that mentions
// it. Substitution is textual: the referenced scalar's string rendering is
// spliced into the holder, and the holder stays a string. `$${...}` escapes
// to a literal `${...}`.
package interp
