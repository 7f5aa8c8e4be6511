package compile

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lassoDecl = `
chain: lasso: {
	input: {
		x: "array[float, (?, ?)]"
		y: "sequence[float]"
	}
	stages: [
		{
			name: "scale"
			transformRequires: x: "array[float, (?, ?)]"
			producedOrModified: x: "array[float, (?, ?)]"
		},
		{
			name: "model"
			fitRequires: {
				x: "array[float, (?, ?)]"
				y: "sequence[float]"
			}
			transformRequires: x: "array[float, (?, ?)]"
			fitParameters: alpha: "float"
			fittedState: model: "opaque[Model]"
			producedOrModified: y_hat: "sequence[float]"
		},
	]
}
`

func compileString(t *testing.T, src, name string) (*CompiledChain, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileChain(name, v.LookupPath(cue.ParsePath("chain."+name)))
}

func TestCompileChain(t *testing.T) {
	compiled, err := compileString(t, lassoDecl, "lasso")
	require.NoError(t, err)

	assert.Equal(t, "lasso", compiled.Name)
	assert.Equal(t, []string{"x", "y"}, compiled.Input.Keys())
	assert.Equal(t, []string{"scale", "model"}, compiled.Pipeline.Names())
	assert.NotEmpty(t, compiled.Fingerprint)

	// The compiled chain is directly checkable and consistent.
	assert.Empty(t, compiled.Pipeline.CheckStatic(compiled.Input))
}

func TestCompileChainBadTypeExpression(t *testing.T) {
	src := `
chain: bad: {
	stages: [{
		name: "s"
		fitRequires: x: "array[float]"
	}]
}
`
	_, err := compileString(t, src, "bad")
	require.Error(t, err)

	compileErr, ok := err.(*CompileError)
	require.True(t, ok)
	assert.Equal(t, "bad", compileErr.Chain)
	assert.Equal(t, "stages[0].fitRequires.x", compileErr.Path)
}

func TestCompileChainNoStages(t *testing.T) {
	_, err := compileString(t, `chain: empty: {input: {}}`, "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one stage")
}

func TestCompileChainDuplicateStageNames(t *testing.T) {
	src := `
chain: dup: {
	stages: [
		{name: "s", producedOrModified: a: "float"},
		{name: "s", producedOrModified: b: "float"},
	]
}
`
	_, err := compileString(t, src, "dup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate stage name")
}

func TestBuildFromPlainDecl(t *testing.T) {
	compiled, err := Build("plain", ChainDecl{
		Input: map[string]string{"a": "float"},
		Stages: []StageDecl{
			{
				Name:               "make",
				TransformRequires:  map[string]string{"a": "float"},
				ProducedOrModified: map[string]string{"b": "float"},
			},
			{
				Name:              "use",
				TransformRequires: map[string]string{"b": "float"},
			},
		},
	}, token.NoPos)
	require.NoError(t, err)
	assert.Empty(t, compiled.Pipeline.CheckStatic(compiled.Input))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chains.cue"), []byte(lassoDecl), 0o644))

	result, errs := LoadDir(dir)
	require.Empty(t, errs)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.FileCount)
	require.Len(t, result.Chains, 1)
	assert.Equal(t, "lasso", result.Chains[0].Name)
	assert.NotNil(t, result.Chain("lasso"))
	assert.Nil(t, result.Chain("missing"))
}

func TestLoadDirMissing(t *testing.T) {
	_, errs := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Len(t, errs, 1)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadDirEmpty(t *testing.T) {
	_, errs := LoadDir(t.TempDir())
	require.Len(t, errs, 1)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadDirCollectsAllErrors(t *testing.T) {
	dir := t.TempDir()
	src := `
chain: good: {
	stages: [{name: "s", producedOrModified: a: "float"}]
}
chain: bad1: {
	stages: [{name: "s", fitRequires: x: "decimal"}]
}
chain: bad2: {
	stages: []
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chains.cue"), []byte(src), 0o644))

	result, errs := LoadDir(dir)
	require.NotNil(t, result)
	assert.Len(t, errs, 2)
	require.Len(t, result.Chains, 1)
	assert.Equal(t, "good", result.Chains[0].Name)
}
