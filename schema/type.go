// Package schema defines the structural type model used by stage contracts:
// a small closed set of type descriptors and the compatibility predicate
// between a declared type and an observed one.
//
// Types are immutable once constructed and are only ever compared through
// Compatible / Classify, never by structural equality of representation.
package schema

import (
	"fmt"
	"strings"
)

// ScalarKind identifies a base scalar type. Kinds must match exactly;
// there is no implicit numeric widening.
type ScalarKind string

const (
	Float  ScalarKind = "float"
	Int    ScalarKind = "int"
	String ScalarKind = "string"
	Bool   ScalarKind = "bool"
)

// ScalarKinds lists the recognized scalar kinds.
var ScalarKinds = []ScalarKind{Float, Int, String, Bool}

func validScalarKind(k ScalarKind) bool {
	switch k {
	case Float, Int, String, Bool:
		return true
	}
	return false
}

// Dim is one dimension constraint of a shaped array: a fixed positive
// size, or DimAny for an unconstrained dimension. DimAny only appears on
// the declared side; an observed dimension is always a concrete size.
type Dim int

// DimAny is the unconstrained dimension marker.
const DimAny Dim = -1

func (d Dim) String() string {
	if d == DimAny {
		return "?"
	}
	return fmt.Sprintf("%d", int(d))
}

// Type is the sealed interface over the five structural type descriptors.
// Only scalarType, sequenceType, arrayType, mappingType and opaqueType
// implement it.
type Type interface {
	typeNode() // sealed

	// String renders the type in the declaration grammar accepted by Parse.
	String() string
}

type scalarType struct {
	kind ScalarKind
}

type sequenceType struct {
	// elem is nil only on the observed side, for containers whose element
	// type could not be determined (an empty untyped sequence). A nil elem
	// is never valid in a declared type.
	elem Type
}

type arrayType struct {
	kind ScalarKind
	dims []Dim
}

type mappingType struct {
	key   ScalarKind
	value Type
}

type opaqueType struct {
	label string
}

func (scalarType) typeNode()   {}
func (sequenceType) typeNode() {}
func (arrayType) typeNode()    {}
func (mappingType) typeNode()  {}
func (opaqueType) typeNode()   {}

func (t scalarType) String() string { return string(t.kind) }

func (t sequenceType) String() string {
	if t.elem == nil {
		return "sequence[?]"
	}
	return fmt.Sprintf("sequence[%s]", t.elem)
}

func (t arrayType) String() string {
	parts := make([]string, len(t.dims))
	for i, d := range t.dims {
		parts[i] = d.String()
	}
	return fmt.Sprintf("array[%s, (%s)]", t.kind, strings.Join(parts, ", "))
}

func (t mappingType) String() string {
	return fmt.Sprintf("mapping[%s, %s]", t.key, t.value)
}

func (t opaqueType) String() string { return fmt.Sprintf("opaque[%s]", t.label) }

// Scalar returns the scalar type of the given kind.
func Scalar(kind ScalarKind) Type { return scalarType{kind: kind} }

// Sequence returns an ordered sequence type with the given element type.
func Sequence(elem Type) Type { return sequenceType{elem: elem} }

// Array returns a shaped array type with the given element kind and
// dimension constraints. Use DimAny for an unconstrained dimension.
func Array(kind ScalarKind, dims ...Dim) Type {
	copied := make([]Dim, len(dims))
	copy(copied, dims)
	return arrayType{kind: kind, dims: copied}
}

// Map returns a key-value mapping type.
func Map(key ScalarKind, value Type) Type { return mappingType{key: key, value: value} }

// Opaque returns a nominally-typed descriptor for an object whose internal
// structure is not checked (for example a trained model handle). Two opaque
// types are compatible only when their labels match exactly.
func Opaque(label string) Type { return opaqueType{label: label} }

// Validate reports whether t is a well-formed declared type. It rejects
// nil types, unknown scalar kinds, zero-rank arrays, non-positive fixed
// dimensions and empty opaque labels. The error describes the first
// problem found inside t.
func Validate(t Type) error {
	switch v := t.(type) {
	case nil:
		return fmt.Errorf("type is nil")
	case scalarType:
		if !validScalarKind(v.kind) {
			return fmt.Errorf("unknown scalar kind %q", v.kind)
		}
	case sequenceType:
		if v.elem == nil {
			return fmt.Errorf("sequence element type is nil")
		}
		if err := Validate(v.elem); err != nil {
			return fmt.Errorf("sequence element: %w", err)
		}
	case arrayType:
		if !validScalarKind(v.kind) {
			return fmt.Errorf("unknown array element kind %q", v.kind)
		}
		if len(v.dims) == 0 {
			return fmt.Errorf("array must have at least one dimension")
		}
		for i, d := range v.dims {
			if d != DimAny && d <= 0 {
				return fmt.Errorf("array dimension %d must be positive or unconstrained, got %d", i, int(d))
			}
		}
	case mappingType:
		if !validScalarKind(v.key) {
			return fmt.Errorf("unknown mapping key kind %q", v.key)
		}
		if v.value == nil {
			return fmt.Errorf("mapping value type is nil")
		}
		if err := Validate(v.value); err != nil {
			return fmt.Errorf("mapping value: %w", err)
		}
	case opaqueType:
		if strings.TrimSpace(v.label) == "" {
			return fmt.Errorf("opaque label must be non-empty")
		}
	default:
		return fmt.Errorf("unknown type descriptor %T", t)
	}
	return nil
}
