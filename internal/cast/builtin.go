package cast

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// TimeType is the capsule type carrying the rich form of the datetime cast.
var TimeType = cty.Capsule("datetime", reflect.TypeOf(time.Time{}))

// integerCast constrains a numeric property to whole values. The rich form
// is still cty.Number; the cast exists to reject fractional input early.
type integerCast struct{}

func (integerCast) Decode(wire cty.Value) (cty.Value, error) {
	if wire.IsNull() {
		return cty.NullVal(cty.Number), nil
	}
	num, err := convert.Convert(wire, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("integer cast: %w", err)
	}
	if !num.AsBigFloat().IsInt() {
		return cty.NilVal, fmt.Errorf("integer cast: value %s is not a whole number", num.AsBigFloat().Text('f', -1))
	}
	return num, nil
}

func (integerCast) Encode(rich cty.Value) (cty.Value, error) {
	if rich.IsNull() {
		return cty.NullVal(cty.Number), nil
	}
	if rich.Type() != cty.Number {
		return cty.NilVal, fmt.Errorf("integer cast: expected a number, got %s", rich.Type().FriendlyName())
	}
	return rich, nil
}

// decimalCast stores an exact numeric value whose wire form is a string, so
// precision survives the JSON float round trip.
type decimalCast struct{}

func (decimalCast) Decode(wire cty.Value) (cty.Value, error) {
	if wire.IsNull() {
		return cty.NullVal(cty.Number), nil
	}
	if wire.Type() == cty.String {
		num, err := cty.ParseNumberVal(wire.AsString())
		if err != nil {
			return cty.NilVal, fmt.Errorf("decimal cast: %w", err)
		}
		return num, nil
	}
	num, err := convert.Convert(wire, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("decimal cast: %w", err)
	}
	return num, nil
}

func (decimalCast) Encode(rich cty.Value) (cty.Value, error) {
	if rich.IsNull() {
		return cty.NullVal(cty.String), nil
	}
	if rich.Type() != cty.Number {
		return cty.NilVal, fmt.Errorf("decimal cast: expected a number, got %s", rich.Type().FriendlyName())
	}
	return cty.StringVal(rich.AsBigFloat().Text('f', -1)), nil
}

// booleanCast accepts the loose truthiness clients send (checkbox values,
// "1"/"0" strings) and stores a strict cty.Bool.
type booleanCast struct{}

func (booleanCast) Decode(wire cty.Value) (cty.Value, error) {
	if wire.IsNull() {
		return cty.NullVal(cty.Bool), nil
	}
	switch wire.Type() {
	case cty.Bool:
		return wire, nil
	case cty.Number:
		return cty.BoolVal(wire.AsBigFloat().Sign() != 0), nil
	case cty.String:
		switch strings.ToLower(wire.AsString()) {
		case "1", "true", "on", "yes":
			return cty.True, nil
		case "0", "false", "off", "no", "":
			return cty.False, nil
		}
		return cty.NilVal, fmt.Errorf("boolean cast: unrecognized value %q", wire.AsString())
	default:
		return cty.NilVal, fmt.Errorf("boolean cast: cannot interpret %s as a boolean", wire.Type().FriendlyName())
	}
}

func (booleanCast) Encode(rich cty.Value) (cty.Value, error) {
	if rich.IsNull() {
		return cty.NullVal(cty.Bool), nil
	}
	if rich.Type() != cty.Bool {
		return cty.NilVal, fmt.Errorf("boolean cast: expected a bool, got %s", rich.Type().FriendlyName())
	}
	return rich, nil
}

// datetimeCast stores a time.Time capsule whose wire form is an RFC 3339
// string.
type datetimeCast struct{}

func (datetimeCast) Decode(wire cty.Value) (cty.Value, error) {
	if wire.IsNull() {
		return cty.NullVal(TimeType), nil
	}
	str, err := convert.Convert(wire, cty.String)
	if err != nil {
		return cty.NilVal, fmt.Errorf("datetime cast: %w", err)
	}
	t, err := time.Parse(time.RFC3339, str.AsString())
	if err != nil {
		return cty.NilVal, fmt.Errorf("datetime cast: %w", err)
	}
	return cty.CapsuleVal(TimeType, &t), nil
}

func (datetimeCast) Encode(rich cty.Value) (cty.Value, error) {
	if rich.IsNull() {
		return cty.NullVal(cty.String), nil
	}
	if !rich.Type().Equals(TimeType) {
		return cty.NilVal, fmt.Errorf("datetime cast: expected a datetime capsule, got %s", rich.Type().FriendlyName())
	}
	t := rich.EncapsulatedValue().(*time.Time)
	return cty.StringVal(t.Format(time.RFC3339Nano)), nil
}

// jsonCast stores a structured value whose wire form is a JSON string.
// Useful for opaque blobs the client treats as a single input value.
type jsonCast struct{}

func (jsonCast) Decode(wire cty.Value) (cty.Value, error) {
	if wire.IsNull() {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	if wire.Type() != cty.String {
		return cty.NilVal, fmt.Errorf("json cast: expected a JSON string, got %s", wire.Type().FriendlyName())
	}
	buf := []byte(wire.AsString())
	ty, err := ctyjson.ImpliedType(buf)
	if err != nil {
		return cty.NilVal, fmt.Errorf("json cast: %w", err)
	}
	val, err := ctyjson.Unmarshal(buf, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("json cast: %w", err)
	}
	return val, nil
}

func (jsonCast) Encode(rich cty.Value) (cty.Value, error) {
	if rich.IsNull() {
		return cty.NullVal(cty.String), nil
	}
	buf, err := ctyjson.Marshal(rich, rich.Type())
	if err != nil {
		return cty.NilVal, fmt.Errorf("json cast: %w", err)
	}
	return cty.StringVal(string(buf)), nil
}
