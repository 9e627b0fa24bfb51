// Package materialize turns a fully-resolved configuration document into
// live component instances. Component specs are instantiated depth-first,
// children strictly before parents, by looking their names up in the
// registry and invoking the factory with the decoded argument mapping.
//
// The materializer holds no resources of its own: ownership of everything a
// factory allocates transfers to the caller through the returned Result.
// There is no rollback on failure; the partial Result is returned alongside
// the error so the caller can release what was already built.
package materialize
