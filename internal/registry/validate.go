package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/convert"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Validate performs a strict parity check between component manifests and
// registered Go code: every referenced cast and handler must exist, and the
// wire-tagged fields of each computed handler's input struct must line up
// with the component's declared properties, both in presence and in type.
func (r *Registry) Validate(ctx context.Context) error {
	r.defMu.RLock()
	defs := r.definitions
	r.defMu.RUnlock()
	return r.validateDefs(ctx, defs)
}

// ValidateModel runs the same parity check against a freshly loaded model
// without swapping it in. The manifest watcher uses it to keep the previous
// definitions live when a reload is broken.
func (r *Registry) ValidateModel(ctx context.Context, model *config.Model) error {
	return r.validateDefs(ctx, model.Components)
}

func (r *Registry) validateDefs(ctx context.Context, defs map[string]*config.ComponentDefinition) error {
	var errs []string

	for name, def := range defs {
		for propName, prop := range def.Properties {
			if prop.Cast == "" {
				continue
			}
			if _, ok := r.CastRegistry[prop.Cast]; !ok {
				errs = append(errs, fmt.Sprintf("component '%s': property '%s' references unregistered cast '%s'", name, propName, prop.Cast))
			}
		}

		for compName, comp := range def.Computed {
			handler, ok := r.ComputedRegistry[comp.Handler]
			if !ok {
				errs = append(errs, fmt.Sprintf("component '%s': computed '%s' references unregistered handler '%s'", name, compName, comp.Handler))
				continue
			}
			errs = append(errs, checkInputParity(ctx, name, def, handler.InputType)...)
		}

		for actName, act := range def.Actions {
			if _, ok := r.ActionRegistry[act.Handler]; !ok {
				errs = append(errs, fmt.Sprintf("component '%s': action '%s' references unregistered handler '%s'", name, actName, act.Handler))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// checkInputParity compares the wire-tagged fields of a computed handler's
// input struct against the component's declared properties. Fields bound to
// cast-backed properties skip the static type check, because the cast owns
// the rich type the field receives.
func checkInputParity(ctx context.Context, component string, def *config.ComponentDefinition, inputType reflect.Type) []string {
	if inputType == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	var errs []string
	for i := 0; i < inputType.NumField(); i++ {
		field := inputType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get(convert.TagName), ",")[0]
		if tagName == "" || tagName == "-" {
			continue
		}

		prop, ok := def.Properties[tagName]
		if !ok {
			errs = append(errs, fmt.Sprintf("component '%s': Go input struct has field for property '%s' which is not declared in the manifest", component, tagName))
			continue
		}
		if prop.Cast != "" {
			continue
		}
		if prop.Type.Equals(cty.DynamicPseudoType) {
			logger.Warn("Manifest declares a property with 'type = any', which disables static type checking.", "component", component, "property", tagName)
			continue
		}

		goFieldType, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("component '%s', property '%s': could not imply cty type from Go field type %s: %v", component, tagName, field.Type, err))
			continue
		}
		if !prop.Type.Equals(goFieldType) {
			errs = append(errs, fmt.Sprintf("component '%s', property '%s': type mismatch. Manifest declares '%s' but Go field '%s' expects '%s'",
				component, tagName, prop.Type.FriendlyName(), field.Name, goFieldType.FriendlyName()))
		}
	}
	return errs
}
