package schema

import (
	"fmt"
	"reflect"
)

// Shaped is implemented by array-like containers that expose their element
// kind and shape without exposing contents. The execution layer adapts its
// concrete array types (whatever they are) to this interface; the checker
// never looks past it.
type Shaped interface {
	ElemKind() ScalarKind
	Shape() []int
}

// Labeled is implemented by values that should be observed as an opaque
// type with a nominal label, such as a trained model handle.
type Labeled interface {
	SchemaLabel() string
}

// Infer derives the observed structural type of a runtime value.
//
// A value that already is a Type is returned as-is, so payloads may carry
// either concrete values or pure type descriptors. Values implementing
// Shaped become shaped arrays with fully concrete dimensions; values
// implementing Labeled become opaque types. Anything else unrecognized
// falls back to an opaque type labeled with its Go type, which can only
// ever satisfy a declaration that names that same label.
func Infer(v any) Type {
	switch val := v.(type) {
	case nil:
		return nil
	case Type:
		return val
	case Shaped:
		shape := val.Shape()
		dims := make([]Dim, len(shape))
		for i, n := range shape {
			dims[i] = Dim(n)
		}
		return arrayType{kind: val.ElemKind(), dims: dims}
	case Labeled:
		return opaqueType{label: val.SchemaLabel()}
	case float64, float32:
		return scalarType{kind: Float}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return scalarType{kind: Int}
	case string:
		return scalarType{kind: String}
	case bool:
		return scalarType{kind: Bool}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return sequenceType{elem: inferElem(rv)}
	case reflect.Map:
		key, ok := kindOfGoType(rv.Type().Key())
		if !ok {
			break
		}
		var value Type
		if elem, ok := kindOfGoType(rv.Type().Elem()); ok {
			value = scalarType{kind: elem}
		} else {
			// Element type only determinable from the values themselves.
			iter := rv.MapRange()
			for iter.Next() {
				value = Infer(iter.Value().Interface())
				break
			}
			if value == nil {
				break
			}
		}
		return mappingType{key: key, value: value}
	}

	return opaqueType{label: fmt.Sprintf("%T", v)}
}

// inferElem determines the element type of a slice or array value. For a
// concretely typed slice the element type is known even when it is empty;
// for []any the first element decides, and an empty []any has no element
// type at all (nil, which Classify treats as unconstrained).
func inferElem(rv reflect.Value) Type {
	if kind, ok := kindOfGoType(rv.Type().Elem()); ok {
		return scalarType{kind: kind}
	}
	if rv.Type().Elem().Kind() == reflect.Interface {
		if rv.Len() == 0 {
			return nil
		}
		return Infer(rv.Index(0).Interface())
	}
	// Typed but non-scalar element ([][]float64, []map[string]int, ...):
	// infer from the element type via a zero value when empty.
	if rv.Len() > 0 {
		return Infer(rv.Index(0).Interface())
	}
	return Infer(reflect.Zero(rv.Type().Elem()).Interface())
}

func kindOfGoType(t reflect.Type) (ScalarKind, bool) {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return Float, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int, true
	case reflect.String:
		return String, true
	case reflect.Bool:
		return Bool, true
	}
	return "", false
}
