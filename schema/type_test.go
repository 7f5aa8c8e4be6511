package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompatibleScalars(t *testing.T) {
	assert.True(t, Compatible(Scalar(Float), Scalar(Float)))
	assert.True(t, Compatible(Scalar(String), Scalar(String)))

	// No implicit numeric widening.
	assert.False(t, Compatible(Scalar(Float), Scalar(Int)))
	assert.False(t, Compatible(Scalar(Int), Scalar(Float)))
	assert.False(t, Compatible(Scalar(Bool), Scalar(String)))
}

func TestCompatibleSequences(t *testing.T) {
	assert.True(t, Compatible(Sequence(Scalar(Float)), Sequence(Scalar(Float))))
	assert.False(t, Compatible(Sequence(Scalar(Float)), Sequence(Scalar(Int))))
	assert.False(t, Compatible(Sequence(Scalar(Float)), Scalar(Float)))

	// Nested element types compare recursively.
	assert.True(t, Compatible(
		Sequence(Sequence(Scalar(Int))),
		Sequence(Sequence(Scalar(Int)))))
	assert.False(t, Compatible(
		Sequence(Sequence(Scalar(Int))),
		Sequence(Sequence(Scalar(Bool)))))

	// An observed sequence with no determinable element type matches any
	// declared element.
	assert.True(t, Compatible(Sequence(Scalar(Float)), sequenceType{elem: nil}))
}

func TestCompatibleArrays(t *testing.T) {
	declared := Array(Float, DimAny, 3)

	// Any first dimension, second fixed at 3.
	assert.True(t, Compatible(declared, Array(Float, 10, 3)))
	assert.True(t, Compatible(declared, Array(Float, 1, 3)))

	// Second dimension of 4 is a shape mismatch, not a type mismatch.
	assert.Equal(t, MatchWrongShape, Classify(declared, Array(Float, 10, 4)))

	// Rank mismatch is also a shape mismatch.
	assert.Equal(t, MatchWrongShape, Classify(declared, Array(Float, 10)))
	assert.Equal(t, MatchWrongShape, Classify(declared, Array(Float, 10, 3, 1)))

	// Element kind disagreement is a type mismatch even when shapes agree.
	assert.Equal(t, MatchWrongType, Classify(declared, Array(Int, 10, 3)))

	// A non-array is a type mismatch.
	assert.Equal(t, MatchWrongType, Classify(declared, Scalar(Float)))
}

func TestCompatibleMappings(t *testing.T) {
	declared := Map(String, Scalar(Float))
	assert.True(t, Compatible(declared, Map(String, Scalar(Float))))
	assert.False(t, Compatible(declared, Map(Int, Scalar(Float))))
	assert.False(t, Compatible(declared, Map(String, Scalar(Int))))
	assert.False(t, Compatible(declared, Scalar(String)))
}

func TestCompatibleOpaque(t *testing.T) {
	assert.True(t, Compatible(Opaque("Model"), Opaque("Model")))

	// Nominal typing: no structural fallback for opaque handles.
	assert.False(t, Compatible(Opaque("Model"), Opaque("Scaler")))
	assert.False(t, Compatible(Opaque("Model"), Scalar(Float)))
	assert.False(t, Compatible(Scalar(Float), Opaque("Model")))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Scalar(Float)))
	require.NoError(t, Validate(Array(Float, DimAny, 3)))
	require.NoError(t, Validate(Map(String, Sequence(Scalar(Int)))))
	require.NoError(t, Validate(Opaque("Model")))

	assert.Error(t, Validate(nil))
	assert.Error(t, Validate(Scalar("decimal")))
	assert.Error(t, Validate(Sequence(nil)))
	assert.Error(t, Validate(Array(Float)))
	assert.Error(t, Validate(Array(Float, 0)))
	assert.Error(t, Validate(Array(Float, -2)))
	assert.Error(t, Validate(Array("complex", DimAny)))
	assert.Error(t, Validate(Map("vector", Scalar(Float))))
	assert.Error(t, Validate(Map(String, nil)))
	assert.Error(t, Validate(Opaque("  ")))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "float", Scalar(Float).String())
	assert.Equal(t, "sequence[float]", Sequence(Scalar(Float)).String())
	assert.Equal(t, "array[float, (?, 3)]", Array(Float, DimAny, 3).String())
	assert.Equal(t, "mapping[string, sequence[int]]", Map(String, Sequence(Scalar(Int))).String())
	assert.Equal(t, "opaque[Model]", Opaque("Model").String())
}
