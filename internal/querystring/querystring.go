// Package querystring renders the query-string representation of a
// component's wire state.
//
// Only properties with a URL binding appear. A bound property is omitted
// exactly when its current value equals the binding's declared "except"
// default, so URLs stay clean while every non-default filter survives a
// page reload.
package querystring

import (
	"fmt"
	"net/url"

	"github.com/vk/wirestate/internal/config"
	"github.com/zclconf/go-cty/cty"
	ctyconvert "github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Encode renders the query string for a snapshot's wire state. Keys are
// emitted in sorted order.
func Encode(def *config.ComponentDefinition, state map[string]cty.Value) (string, error) {
	values := url.Values{}

	for name, prop := range def.Properties {
		if prop.URL == nil {
			continue
		}
		v, ok := state[name]
		if !ok || v.IsNull() {
			continue
		}
		if prop.URL.Except != nil && equalWire(v, *prop.URL.Except) {
			continue
		}

		rendered, err := render(v)
		if err != nil {
			return "", fmt.Errorf("property '%s': %w", name, err)
		}

		key := prop.URL.Key
		if key == "" {
			key = name
		}
		values.Set(key, rendered)
	}

	return values.Encode(), nil
}

// render produces the string form of one wire value. Primitives render
// bare; collections and objects render as JSON.
func render(v cty.Value) (string, error) {
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	case ty == cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil
	default:
		buf, err := ctyjson.Marshal(v, ty)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	}
}

// equalWire compares a wire value against a declared exception default,
// converting the exception to the value's type when they differ.
func equalWire(v, except cty.Value) bool {
	if v.Type().Equals(except.Type()) {
		return v.RawEquals(except)
	}
	converted, err := ctyconvert.Convert(except, v.Type())
	if err != nil {
		return false
	}
	return v.RawEquals(converted)
}
