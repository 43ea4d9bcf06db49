// Package registry provides the central "glue" between component manifests
// and compiled Go code.
//
// The Registry stores mappings between the string identifiers used in
// manifests (e.g. "ComputeResults", cast names like "datetime") and the
// actual Go functions and transforms that implement them. It also holds the
// parsed, format-agnostic component definitions from the manifests.
//
// During application startup, the registry is populated and then validated
// to ensure the Go code and the public-facing manifests are in sync,
// preventing a wide class of runtime errors.
package registry
