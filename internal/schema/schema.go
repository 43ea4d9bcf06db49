// Package schema defines the HCL shapes of component manifest files.
package schema

import "github.com/hashicorp/hcl/v2"

// Property represents a `property` block: one public, client-writable field
// of a component.
type Property struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Cast        string         `hcl:"cast,optional"`
	Live        bool           `hcl:"live,optional"`
	Debounce    string         `hcl:"debounce,optional"`
	URL         *URL           `hcl:"url,block"`
}

// URL represents the `url` block binding a property to a query-string key.
type URL struct {
	As     string         `hcl:"as,optional"`
	Except hcl.Expression `hcl:"except,optional"`
}

// Computed represents a `computed` block: a derived value backed by a
// registered Go handler.
type Computed struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
	Handler     string `hcl:"handler"`
}

// Action represents an `action` block: a client-callable handler.
type Action struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
	Handler     string `hcl:"handler"`
}

// Component represents a top-level `component` block.
type Component struct {
	Name        string      `hcl:"name,label"`
	Description string      `hcl:"description,optional"`
	Properties  []*Property `hcl:"property,block"`
	Computed    []*Computed `hcl:"computed,block"`
	Actions     []*Action   `hcl:"action,block"`
}
