// Package registry maps fully-qualified component names (such as
// "models.lora_llama2_7b") to the Go factories that construct them. A
// registry is scoped to one application instance, populated by Module values
// at startup, and queried by the materializer. Dynamic dispatch happens
// through this explicit table; nothing is looked up by reflection over
// package paths.
package registry
