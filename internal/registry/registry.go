package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/vk/wirestate/internal/cast"
	"github.com/vk/wirestate/internal/config"
)

// Module is the interface component packages implement to be registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredComputed holds the compiled Go parts of a computed property's
// derivation.
//
// Fn must be a func(ctx context.Context, input *I) (O, error). The engine
// populates *I from the instance's current property values using `wire`
// struct tags; O is lifted back into a cty value for the snapshot.
type RegisteredComputed struct {
	NewInput  func() any
	InputType reflect.Type
	Fn        any
}

// RegisteredAction holds the compiled Go parts of a client-callable action.
//
// Fn must be a func(ctx context.Context, c *engine.Ctx, input *I) error.
// *I is populated from the call's arguments using `wire` struct tags.
type RegisteredAction struct {
	NewInput  func() any
	InputType reflect.Type
	Fn        any
}

// Registry holds all registered handlers, casts, and component definitions
// for a single application instance.
type Registry struct {
	ComputedRegistry map[string]*RegisteredComputed
	ActionRegistry   map[string]*RegisteredAction
	CastRegistry     map[string]cast.Cast

	// defMu guards the definitions map, which is swapped wholesale when
	// manifests are hot-reloaded.
	defMu       sync.RWMutex
	definitions map[string]*config.ComponentDefinition
}

// New creates a Registry seeded with the built-in casts.
func New() *Registry {
	r := &Registry{
		ComputedRegistry: make(map[string]*RegisteredComputed),
		ActionRegistry:   make(map[string]*RegisteredAction),
		CastRegistry:     make(map[string]cast.Cast),
		definitions:      make(map[string]*config.ComponentDefinition),
	}
	for name, c := range cast.Builtins() {
		r.CastRegistry[name] = c
	}
	return r
}

// RegisterComputed registers a Go derivation function for a computed property.
func (r *Registry) RegisterComputed(name string, handler *RegisteredComputed) {
	if _, exists := r.ComputedRegistry[name]; exists {
		panic(fmt.Sprintf("computed handler with name '%s' already registered", name))
	}
	slog.Debug("Registering computed handler.", "name", name)
	r.ComputedRegistry[name] = handler
}

// RegisterAction registers a Go function for a client-callable action.
func (r *Registry) RegisterAction(name string, handler *RegisteredAction) {
	if _, exists := r.ActionRegistry[name]; exists {
		panic(fmt.Sprintf("action handler with name '%s' already registered", name))
	}
	slog.Debug("Registering action handler.", "name", name)
	r.ActionRegistry[name] = handler
}

// RegisterCast registers a custom cast. Built-in cast names cannot be
// shadowed.
func (r *Registry) RegisterCast(name string, c cast.Cast) {
	if _, exists := r.CastRegistry[name]; exists {
		panic(fmt.Sprintf("cast with name '%s' already registered", name))
	}
	slog.Debug("Registering cast.", "name", name)
	r.CastRegistry[name] = c
}

// Computed looks up a registered computed handler by name.
func (r *Registry) Computed(name string) (*RegisteredComputed, bool) {
	h, ok := r.ComputedRegistry[name]
	return h, ok
}

// Action looks up a registered action handler by name.
func (r *Registry) Action(name string) (*RegisteredAction, bool) {
	h, ok := r.ActionRegistry[name]
	return h, ok
}

// Cast looks up a registered cast by name.
func (r *Registry) Cast(name string) (cast.Cast, bool) {
	c, ok := r.CastRegistry[name]
	return c, ok
}

// Definition looks up a component definition by name.
func (r *Registry) Definition(name string) (*config.ComponentDefinition, bool) {
	r.defMu.RLock()
	defer r.defMu.RUnlock()
	def, ok := r.definitions[name]
	return def, ok
}

// Definitions returns the current definitions map. The returned map must be
// treated as read-only.
func (r *Registry) Definitions() map[string]*config.ComponentDefinition {
	r.defMu.RLock()
	defer r.defMu.RUnlock()
	return r.definitions
}

// PopulateDefinitionsFromModel copies the loaded component definitions from
// the config model into the registry.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) {
	r.defMu.Lock()
	defer r.defMu.Unlock()
	for name, def := range model.Components {
		r.definitions[name] = def
	}
}

// ReplaceDefinitions swaps the whole definitions map. Used by the manifest
// watcher after a successful reload.
func (r *Registry) ReplaceDefinitions(model *config.Model) {
	fresh := make(map[string]*config.ComponentDefinition, len(model.Components))
	for name, def := range model.Components {
		fresh[name] = def
	}
	r.defMu.Lock()
	r.definitions = fresh
	r.defMu.Unlock()
}
