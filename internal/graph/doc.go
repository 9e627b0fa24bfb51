// Package graph provides a small string-keyed dependency graph with cycle
// detection and deterministic topological ordering. Both the interpolation
// resolver and the materializer order their work with it: an edge from A to
// B means B depends on A, so A sorts strictly before B.
package graph
