package config

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of all loaded
// component declarations.
type Model struct {
	Components map[string]*ComponentDefinition
}

// ComponentDefinition describes one component type: its public properties,
// computed values, and actions.
type ComponentDefinition struct {
	Name        string
	Description string
	Properties  map[string]*PropertyDefinition
	Computed    map[string]*ComputedDefinition
	Actions     map[string]*ActionDefinition
}

// PropertyDefinition describes a single public property of a component.
type PropertyDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	// Default is the initial value in wire form. Nil means the property
	// starts as a null of its declared type.
	Default *cty.Value
	// Cast names a registered bidirectional transform applied on the way in
	// (wire to rich) and out (rich to wire). Empty means no cast.
	Cast string
	// Live marks a property whose updates are pushed as the user types, as
	// opposed to being deferred until the next action call.
	Live bool
	// Debounce is the quiet interval transports use to coalesce bursts of
	// updates to a live property. Zero means the transport default.
	Debounce time.Duration
	// URL, when set, binds the property to a query-string key.
	URL *URLBinding
}

// URLBinding associates a property with a query-string key.
type URLBinding struct {
	// Key is the query-string key. Defaults to the property name.
	Key string
	// Except holds the value (in wire form) for which the key is omitted
	// from the query string. Nil means the key is always present.
	Except *cty.Value
}

// ComputedDefinition maps a derived value's name to a registered Go handler.
type ComputedDefinition struct {
	Name        string
	Description string
	Handler     string
}

// ActionDefinition maps a client-callable action to a registered Go handler.
type ActionDefinition struct {
	Name        string
	Description string
	Handler     string
}
