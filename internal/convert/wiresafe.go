package convert

import "github.com/zclconf/go-cty/cty"

// WireSafe reports whether a value is expressible on the wire: a primitive,
// or a list, set, map, tuple, or object composed of wire-safe values. Null
// and unknown values are wire-safe; capsules are not.
func WireSafe(v cty.Value) bool {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return true
	}
	return wireSafeType(v.Type())
}

func wireSafeType(t cty.Type) bool {
	switch {
	case t == cty.String || t == cty.Number || t == cty.Bool:
		return true
	case t == cty.DynamicPseudoType:
		return true
	case t.IsListType() || t.IsSetType() || t.IsMapType():
		return wireSafeType(t.ElementType())
	case t.IsTupleType():
		for _, et := range t.TupleElementTypes() {
			if !wireSafeType(et) {
				return false
			}
		}
		return true
	case t.IsObjectType():
		for _, at := range t.AttributeTypes() {
			if !wireSafeType(at) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
