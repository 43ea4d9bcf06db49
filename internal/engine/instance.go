package engine

import (
	"github.com/vk/wirestate/internal/cast"
	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/convert"
	"github.com/vk/wirestate/internal/registry"
	"github.com/zclconf/go-cty/cty"
	ctyconvert "github.com/zclconf/go-cty/cty/convert"
)

// CycleStats counts what happened during the current update cycle. Reset by
// BeginCycle.
type CycleStats struct {
	Applied           int
	ComputedEvaluated int
	CallsRun          int
}

// Instance is one live component: a mapping from property name to its rich
// in-memory value, plus the per-cycle memo cache and effect queue.
type Instance struct {
	id  string
	def *config.ComponentDefinition
	reg *registry.Registry

	values  map[string]cty.Value
	initial map[string]cty.Value

	// memo caches computed results for the current cycle only.
	memo     map[string]cty.Value
	redirect string
	stats    CycleStats
}

// New initializes an instance from the component's declared defaults. A
// default of a non-wire-safe kind, a reference to an unregistered cast, or a
// default the cast rejects all fail with a ConfigurationError.
func New(def *config.ComponentDefinition, reg *registry.Registry, id string) (*Instance, error) {
	in := &Instance{
		id:      id,
		def:     def,
		reg:     reg,
		values:  make(map[string]cty.Value, len(def.Properties)),
		initial: make(map[string]cty.Value, len(def.Properties)),
		memo:    make(map[string]cty.Value),
	}

	for name, prop := range def.Properties {
		rich, err := in.initialValue(prop)
		if err != nil {
			return nil, &ConfigurationError{Component: def.Name, Subject: "property '" + name + "'", Err: err}
		}
		in.values[name] = rich
		in.initial[name] = rich
	}
	return in, nil
}

// initialValue resolves a property's declared default into its rich form.
func (in *Instance) initialValue(prop *config.PropertyDefinition) (cty.Value, error) {
	c, err := in.castFor(prop)
	if err != nil {
		return cty.NilVal, err
	}

	if prop.Default == nil {
		if c != nil {
			// A cast-backed property starts as whatever the cast makes of null.
			return c.Decode(cty.NullVal(prop.Type))
		}
		return cty.NullVal(prop.Type), nil
	}

	def := *prop.Default
	if !convert.WireSafe(def) {
		return cty.NilVal, errNotWireSafe(def)
	}
	if c != nil {
		return c.Decode(def)
	}
	return ctyconvert.Convert(def, prop.Type)
}

// Apply merges one inbound wire value into state, lifting it through the
// property's cast when one is declared, or converting it to the declared
// type otherwise. A failed apply returns a ValidationError and leaves state
// untouched.
func (in *Instance) Apply(name string, wire cty.Value) error {
	prop, ok := in.def.Properties[name]
	if !ok {
		return &NotFoundError{Component: in.def.Name, Kind: "property", Name: name}
	}
	if !convert.WireSafe(wire) {
		return &ValidationError{Component: in.def.Name, Property: name, Err: errNotWireSafe(wire)}
	}

	c, err := in.castFor(prop)
	if err != nil {
		return &ConfigurationError{Component: in.def.Name, Subject: "property '" + name + "'", Err: err}
	}

	var rich cty.Value
	if c != nil {
		rich, err = c.Decode(wire)
	} else {
		rich, err = ctyconvert.Convert(wire, prop.Type)
	}
	if err != nil {
		return &ValidationError{Component: in.def.Name, Property: name, Err: err}
	}

	in.values[name] = rich
	in.stats.Applied++
	return nil
}

// Reset restores the named properties to their initialization-time values.
// With no arguments it restores every property.
func (in *Instance) Reset(names ...string) error {
	if len(names) == 0 {
		for name, val := range in.initial {
			in.values[name] = val
		}
		return nil
	}
	// Validate every name up front so a rejected reset restores nothing.
	for _, name := range names {
		if _, ok := in.initial[name]; !ok {
			return &NotFoundError{Component: in.def.Name, Kind: "property", Name: name}
		}
	}
	for _, name := range names {
		in.values[name] = in.initial[name]
	}
	return nil
}

// Get returns a property's current rich value.
func (in *Instance) Get(name string) (cty.Value, error) {
	val, ok := in.values[name]
	if !ok {
		return cty.NilVal, &NotFoundError{Component: in.def.Name, Kind: "property", Name: name}
	}
	return val, nil
}

// BeginCycle starts a fresh request cycle: the computed memo cache, the
// effect queue, and the cycle stats are all discarded.
func (in *Instance) BeginCycle() {
	in.memo = make(map[string]cty.Value)
	in.redirect = ""
	in.stats = CycleStats{}
}

// Redirect queues a client redirect, surfaced once in the next snapshot.
// The last queued redirect of a cycle wins.
func (in *Instance) Redirect(url string) {
	in.redirect = url
}

// ID returns the instance's identifier.
func (in *Instance) ID() string { return in.id }

// Definition returns the component definition the instance was built from.
func (in *Instance) Definition() *config.ComponentDefinition { return in.def }

// Stats returns the counters for the current cycle.
func (in *Instance) Stats() CycleStats { return in.stats }

// castFor resolves a property's declared cast, or nil when it has none.
func (in *Instance) castFor(prop *config.PropertyDefinition) (cast.Cast, error) {
	if prop.Cast == "" {
		return nil, nil
	}
	c, ok := in.reg.Cast(prop.Cast)
	if !ok {
		return nil, errUnknownCast(prop.Cast)
	}
	return c, nil
}
