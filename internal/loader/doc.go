// Package loader defines the format-agnostic configuration loading contract
// and the multi-file front door used by the app. Concrete syntax lives in
// the yamlload and hclload subpackages; this package discovers config files,
// dispatches each to the loader for its extension, and deep-merges the
// resulting documents (later files win on conflicting keys).
package loader
