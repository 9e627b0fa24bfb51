// Package cfgerr defines the typed errors produced by the configuration
// resolution pipeline. Every error carries the dotted path of the offending
// value so the CLI can point the user at the exact field. All of them are
// fatal to the resolution run; nothing in this package is retried.
package cfgerr
