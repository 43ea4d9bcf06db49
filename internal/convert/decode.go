package convert

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	ctyconvert "github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// TagName is the struct tag handlers use to bind fields to property or
// argument names.
const TagName = "wire"

// DecodeObject populates a Go struct from a map of named cty values, binding
// fields by their `wire` tag. Names without a matching field and fields
// without a matching name are skipped; strict parity between the two is the
// registry validator's job, not the decoder's.
func DecodeObject(ctx context.Context, values map[string]cty.Value, target any) error {
	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer to a struct")
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		fieldDef := structType.Field(i)
		fieldVal := structVal.Field(i)

		if !fieldDef.IsExported() || !fieldVal.CanSet() {
			continue
		}

		tagName := strings.Split(fieldDef.Tag.Get(TagName), ",")[0]
		if tagName == "" || tagName == "-" {
			continue
		}

		val, ok := values[tagName]
		if !ok {
			continue
		}

		if err := DecodeValue(ctx, val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("in field '%s': %w", tagName, err)
		}
	}
	return nil
}

// DecodeValue is a recursive function that populates a Go value from a
// cty.Value.
func DecodeValue(ctx context.Context, val cty.Value, target any) error {
	valPtr := reflect.ValueOf(target)
	goPtr := valPtr.Elem()
	goType := goPtr.Type()
	logger := ctxlog.FromContext(ctx).With("go_kind", goType.Kind().String())

	// A target field of type cty.Value takes the value as-is.
	if goType == reflect.TypeOf(cty.Value{}) {
		if val.IsKnown() {
			goPtr.Set(reflect.ValueOf(val))
		}
		return nil
	}

	if val == cty.NilVal || !val.IsKnown() || val.IsNull() {
		return nil // Nothing to decode.
	}

	// Rich values carried in capsules unwrap directly into a field of the
	// encapsulated type (e.g. a datetime capsule into a time.Time field).
	if valTy := val.Type(); valTy.IsCapsuleType() {
		if valTy.EncapsulatedType() != goType {
			return fmt.Errorf("cannot decode capsule of %s into Go %s", valTy.FriendlyName(), goType.String())
		}
		goPtr.Set(reflect.ValueOf(val.EncapsulatedValue()).Elem())
		return nil
	}

	switch goType.Kind() {
	case reflect.Struct:
		logger.Debug("Decoding as struct.")
		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return fmt.Errorf("type mismatch: cannot decode cty value of type %s into Go struct %s", val.Type().FriendlyName(), goType.String())
		}
		return DecodeObject(ctx, val.AsValueMap(), target)

	case reflect.Interface: // This handles 'any'.
		native, err := ToNative(val)
		if err != nil {
			return err
		}
		if native != nil {
			goPtr.Set(reflect.ValueOf(native))
		}
		return nil

	case reflect.Map:
		return decodeMap(ctx, val, goPtr)

	case reflect.Slice:
		logger.Debug("Decoding as slice.")
		if !val.Type().IsListType() && !val.Type().IsSetType() && !val.Type().IsTupleType() {
			return fmt.Errorf("type mismatch: cannot decode cty.%s into Go slice %s", val.Type().FriendlyName(), goType.String())
		}

		if val.Type().IsTupleType() {
			// A tuple must be made uniform before it can land in a Go slice.
			goElemType := goType.Elem()
			ctyElemType, err := gocty.ImpliedType(reflect.Zero(goElemType).Interface())
			if err != nil {
				return fmt.Errorf("cannot imply cty type for slice element %s: %w", goElemType.String(), err)
			}
			listVal, err := ctyconvert.Convert(val, cty.List(ctyElemType))
			if err != nil {
				return fmt.Errorf("cannot convert tuple to a uniform list for slice %s: %w", goType.String(), err)
			}
			val = listVal
		}

		newSlice := reflect.MakeSlice(goType, val.LengthInt(), val.LengthInt())
		it := val.ElementIterator()
		for i := 0; it.Next(); i++ {
			_, elem := it.Element()
			if err := DecodeValue(ctx, elem, newSlice.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("in slice element %d: %w", i, err)
			}
		}
		goPtr.Set(newSlice)
		return nil

	default: // Base cases for primitives (string, int, bool, float64, etc.)
		implied, err := gocty.ImpliedType(reflect.Zero(goType).Interface())
		if err != nil {
			return fmt.Errorf("cannot imply cty type for Go %s: %w", goType.String(), err)
		}
		converted, err := ctyconvert.Convert(val, implied)
		if err != nil {
			return fmt.Errorf("cannot convert value of type %s to %s: %w", val.Type().FriendlyName(), implied.FriendlyName(), err)
		}
		return gocty.FromCtyValue(converted, target)
	}
}

// decodeMap handles the recursive decoding of a cty.Value into a Go map. It
// contains a fast path for generic map[string]any and a deep-decode path for
// typed maps, and accepts cty objects as well as cty maps.
func decodeMap(ctx context.Context, val cty.Value, goPtr reflect.Value) error {
	if !val.Type().IsMapType() && !val.Type().IsObjectType() {
		return fmt.Errorf("type mismatch: cannot decode cty.%s into Go map %s", val.Type().FriendlyName(), goPtr.Type().String())
	}

	if goPtr.Type() == reflect.TypeOf((map[string]any)(nil)) {
		native, err := ToNative(val)
		if err != nil {
			return err
		}
		if native != nil {
			goPtr.Set(reflect.ValueOf(native))
		}
		return nil
	}

	newMap := reflect.MakeMap(goPtr.Type())
	it := val.ElementIterator()
	for it.Next() {
		key, elem := it.Element()
		keyStr := key.AsString()

		newElemPtr := reflect.New(goPtr.Type().Elem())
		if err := DecodeValue(ctx, elem, newElemPtr.Interface()); err != nil {
			return fmt.Errorf("failed to decode map element '%s': %w", keyStr, err)
		}
		newMap.SetMapIndex(reflect.ValueOf(keyStr), newElemPtr.Elem())
	}
	goPtr.Set(newMap)
	return nil
}
