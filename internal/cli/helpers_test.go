package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
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
			fitRequires: x: "array[float, (?, ?)]"
			transformRequires: x: "array[float, (?, ?)]"
			fittedState: mean: "sequence[float]"
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

chain: broken: {
	input: a: "float"
	stages: [
		{
			name: "use"
			transformRequires: b: "float"
		},
	]
}
`

// writeDecls writes the test chains into a fresh declaration directory.
func writeDecls(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chains.cue"), []byte(lassoDecl), 0o644))
	return dir
}

// execute runs the CLI with the given args and captures stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	return executeCommand(t, cmd, args...)
}

func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
