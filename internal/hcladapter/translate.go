// This file translates HCL schema structs into the format-agnostic
// configuration model.

package hcladapter

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/schema"
	"github.com/vk/wirestate/internal/typeexpr"
)

// translateComponent converts one HCL component block into the agnostic
// model.
func translateComponent(comp *schema.Component) (*config.ComponentDefinition, error) {
	def := &config.ComponentDefinition{
		Name:        comp.Name,
		Description: comp.Description,
		Properties:  make(map[string]*config.PropertyDefinition, len(comp.Properties)),
		Computed:    make(map[string]*config.ComputedDefinition, len(comp.Computed)),
		Actions:     make(map[string]*config.ActionDefinition, len(comp.Actions)),
	}

	for _, prop := range comp.Properties {
		translated, err := translateProperty(prop, comp.Name)
		if err != nil {
			return nil, err
		}
		if _, exists := def.Properties[prop.Name]; exists {
			return nil, fmt.Errorf("component '%s': property '%s' declared more than once", comp.Name, prop.Name)
		}
		def.Properties[prop.Name] = translated
	}

	for _, derived := range comp.Computed {
		def.Computed[derived.Name] = &config.ComputedDefinition{
			Name:        derived.Name,
			Description: derived.Description,
			Handler:     derived.Handler,
		}
	}

	for _, act := range comp.Actions {
		def.Actions[act.Name] = &config.ActionDefinition{
			Name:        act.Name,
			Description: act.Description,
			Handler:     act.Handler,
		}
	}

	return def, nil
}

// translateProperty converts one property block, resolving its type
// expression, default value, debounce interval, and URL binding.
func translateProperty(prop *schema.Property, component string) (*config.PropertyDefinition, error) {
	parsedType, err := typeexpr.Parse(prop.Type)
	if err != nil {
		return nil, fmt.Errorf("component '%s', property '%s': %w", component, prop.Name, err)
	}

	out := &config.PropertyDefinition{
		Name:        prop.Name,
		Type:        parsedType,
		Description: prop.Description,
		Cast:        prop.Cast,
		Live:        prop.Live,
	}

	if isExprDefined(prop.Default) {
		val, diags := prop.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default for property '%s' in component '%s': %w", prop.Name, component, diags)
		}
		if !val.IsNull() {
			out.Default = &val
		}
	}

	if prop.Debounce != "" {
		d, err := time.ParseDuration(prop.Debounce)
		if err != nil {
			return nil, fmt.Errorf("component '%s', property '%s': invalid debounce: %w", component, prop.Name, err)
		}
		out.Debounce = d
	}

	if prop.URL != nil {
		binding := &config.URLBinding{Key: prop.URL.As}
		if binding.Key == "" {
			binding.Key = prop.Name
		}
		if isExprDefined(prop.URL.Except) {
			val, diags := prop.URL.Except.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("invalid url except for property '%s' in component '%s': %w", prop.Name, component, diags)
			}
			binding.Except = &val
		}
		out.URL = binding
	}

	return out, nil
}

// isExprDefined checks if an HCL expression was actually present in the
// source. The HCL decoder populates optional attributes with non-nil,
// zero-width expression objects, so a nil check is insufficient; a genuine
// attribute occupies bytes in the file.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	exprRange := expr.Range()
	return exprRange.End.Byte > exprRange.Start.Byte
}
