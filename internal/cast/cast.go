// Package cast defines the bidirectional transforms between the wire
// representation of a property and its rich in-memory form, plus the
// built-in transforms every registry starts with.
package cast

import "github.com/zclconf/go-cty/cty"

// Cast is a named bidirectional transform attached to a property.
//
// Decode runs on the way in: it lifts a wire-safe value into the rich form
// the engine stores. Encode runs on the way out: it lowers the rich form
// back to a wire-safe value. For every cast, Encode(Decode(x)) must
// round-trip to an equivalent wire value.
type Cast interface {
	Decode(wire cty.Value) (cty.Value, error)
	Encode(rich cty.Value) (cty.Value, error)
}

// Builtins returns the casts available without explicit registration.
func Builtins() map[string]Cast {
	return map[string]Cast{
		"integer":  integerCast{},
		"decimal":  decimalCast{},
		"boolean":  booleanCast{},
		"datetime": datetimeCast{},
		"json":     jsonCast{},
	}
}
