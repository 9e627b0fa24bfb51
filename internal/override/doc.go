// Package override applies command-line dotted-path overrides to a parsed
// document, before interpolation and materialization. Overrides apply left
// to right, so later assignments win on conflicting paths, and applying the
// same sequence twice yields an identical document.
//
// The grammar follows the originating launcher's CLI:
//
//	key.path=value    replace an existing value (type-coerced to match it)
//	+key.path=value   add a new key, even to a component's closed arguments
//	~key.path         remove an existing key
//
// Raw value strings are coerced using the static type of the value already
// at the path; for new keys the type is inferred by attempting bool, int,
// float, list, and finally string.
package override
