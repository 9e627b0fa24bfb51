// Package recipe defines the runnable training and conversion flows built
// on top of a materialized config, and the registry the CLI selects them
// from. A recipe receives the constructed component graph in Setup, does
// its work in Run, and releases the components in Cleanup.
package recipe
