package schema

// Match classifies the outcome of comparing a declared type against an
// observed type.
type Match int

const (
	// MatchOK means the observed type satisfies the declared type.
	MatchOK Match = iota

	// MatchWrongType means the base type disagrees (scalar kind, variant,
	// opaque label or container element).
	MatchWrongType

	// MatchWrongShape means both sides are shaped arrays of the same
	// element kind but the rank or a fixed dimension disagrees.
	MatchWrongShape
)

// Compatible reports whether an observed type satisfies a declared type.
//
// Scalar kinds and opaque labels must match exactly. Sequences and
// mappings compare element types recursively. Shaped arrays must agree on
// element kind and rank, and every fixed declared dimension must equal the
// observed one; DimAny on the declared side accepts any observed size.
func Compatible(declared, observed Type) bool {
	return Classify(declared, observed) == MatchOK
}

// Classify is Compatible with the reason for a failure: it distinguishes a
// base-type disagreement from a shape disagreement between two arrays of
// the same element kind.
func Classify(declared, observed Type) Match {
	switch d := declared.(type) {
	case scalarType:
		o, ok := observed.(scalarType)
		if !ok || o.kind != d.kind {
			return MatchWrongType
		}
		return MatchOK

	case sequenceType:
		o, ok := observed.(sequenceType)
		if !ok {
			return MatchWrongType
		}
		// An observed sequence with no determinable element type (an empty
		// container) has nothing to contradict the declared element.
		if o.elem == nil {
			return MatchOK
		}
		if Classify(d.elem, o.elem) != MatchOK {
			return MatchWrongType
		}
		return MatchOK

	case arrayType:
		o, ok := observed.(arrayType)
		if !ok {
			return MatchWrongType
		}
		if o.kind != d.kind {
			return MatchWrongType
		}
		if len(o.dims) != len(d.dims) {
			return MatchWrongShape
		}
		for i, dim := range d.dims {
			if dim != DimAny && dim != o.dims[i] {
				return MatchWrongShape
			}
		}
		return MatchOK

	case mappingType:
		o, ok := observed.(mappingType)
		if !ok || o.key != d.key {
			return MatchWrongType
		}
		if Classify(d.value, o.value) != MatchOK {
			return MatchWrongType
		}
		return MatchOK

	case opaqueType:
		o, ok := observed.(opaqueType)
		if !ok || o.label != d.label {
			return MatchWrongType
		}
		return MatchOK
	}
	return MatchWrongType
}
