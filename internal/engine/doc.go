// Package engine implements the property state synchronizer at the heart of
// wirestate.
//
// An Instance holds one component's public state: typed property values
// initialized from manifest defaults, mutated by client updates and action
// calls, and serialized back to the client as a snapshot after every update
// cycle. Computed values are derived on demand and memoized for the lifetime
// of a single cycle.
//
// Instances are not safe for concurrent use; the store serializes cycles so
// that at most one runs against an instance at a time.
package engine
