package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaflow/schemaflow/schema"
)

func TestNewEmptyContract(t *testing.T) {
	c, err := New(Spec{})
	require.NoError(t, err)

	assert.Equal(t, 0, c.FitRequires().Len())
	assert.Equal(t, 0, c.TransformRequires().Len())
	assert.False(t, c.Stateful())
}

func TestNewValidContract(t *testing.T) {
	c, err := New(Spec{
		FitRequires: schema.New(
			schema.E("x", schema.Array(schema.Float, schema.DimAny, schema.DimAny)),
			schema.E("y", schema.Sequence(schema.Scalar(schema.Float))),
		),
		FitParameters:      schema.New(schema.E("alpha", schema.Scalar(schema.Float))),
		FittedState:        schema.New(schema.E("model", schema.Opaque("Model"))),
		ProducedOrModified: schema.New(schema.E("model_out", schema.Opaque("Model"))),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, c.FitRequires().Keys())
	assert.True(t, c.Stateful())
}

func TestNewRejectsMalformedTypes(t *testing.T) {
	_, err := New(Spec{
		FitRequires: schema.New(
			schema.E("x", schema.Array(schema.Float, -3)),
			schema.E("y", nil),
		),
	})
	require.Error(t, err)

	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
	require.Len(t, malformed.Problems, 2)
	assert.Equal(t, CodeInvalidType, malformed.Problems[0].Code)
	assert.Equal(t, "x", malformed.Problems[0].Key)
	assert.Equal(t, CodeNilType, malformed.Problems[1].Code)
	assert.Equal(t, "y", malformed.Problems[1].Key)
}

func TestNewRejectsStateProducedOverlap(t *testing.T) {
	_, err := New(Spec{
		FittedState:        schema.New(schema.E("model", schema.Opaque("Model"))),
		ProducedOrModified: schema.New(schema.E("model", schema.Opaque("Model"))),
	})
	require.Error(t, err)

	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
	require.Len(t, malformed.Problems, 1)
	assert.Equal(t, CodeReservedState, malformed.Problems[0].Code)
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := MustNew(Spec{
		FitRequires: schema.New(schema.E("x", schema.Scalar(schema.Float))),
	})

	got := c.FitRequires()
	got.Set("injected", schema.Scalar(schema.Int))

	assert.False(t, c.FitRequires().Has("injected"))
}

func TestSpecCopiedOnConstruction(t *testing.T) {
	fit := schema.New(schema.E("x", schema.Scalar(schema.Float)))
	c := MustNew(Spec{FitRequires: fit})

	fit.Set("later", schema.Scalar(schema.Int))

	assert.False(t, c.FitRequires().Has("later"))
}

func TestFingerprintStable(t *testing.T) {
	build := func() *Contract {
		return MustNew(Spec{
			FitRequires: schema.New(
				schema.E("x", schema.Array(schema.Float, schema.DimAny, 3)),
				schema.E("y", schema.Sequence(schema.Scalar(schema.Float))),
			),
			FitParameters: schema.New(schema.E("alpha", schema.Scalar(schema.Float))),
		})
	}
	assert.Equal(t, Fingerprint(build()), Fingerprint(build()))
}

func TestFingerprintIgnoresDeclarationOrder(t *testing.T) {
	a := MustNew(Spec{
		FitRequires: schema.New(
			schema.E("x", schema.Scalar(schema.Float)),
			schema.E("y", schema.Scalar(schema.Int)),
		),
	})
	b := MustNew(Spec{
		FitRequires: schema.New(
			schema.E("y", schema.Scalar(schema.Int)),
			schema.E("x", schema.Scalar(schema.Float)),
		),
	})
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintSensitiveToContent(t *testing.T) {
	a := MustNew(Spec{FitRequires: schema.New(schema.E("x", schema.Scalar(schema.Float)))})
	b := MustNew(Spec{FitRequires: schema.New(schema.E("x", schema.Scalar(schema.Int)))})
	c := MustNew(Spec{TransformRequires: schema.New(schema.E("x", schema.Scalar(schema.Float)))})

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}
