package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeChain(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "describe", dir, "--chain", "lasso")
	require.NoError(t, err)

	assert.Contains(t, out, `chain "lasso"`)
	assert.Contains(t, out, "- scale")
	assert.Contains(t, out, "- model")
	// Net transform requirement is x alone: y is only read at fit time.
	assert.Contains(t, out, "required input (transform):\n    x: array[float, (?, ?)]")
	assert.Contains(t, out, "y: sequence[float]")
	assert.Contains(t, out, "y_hat: sequence[float]")
}

func TestDescribeJSON(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "describe", dir, "--chain", "lasso", "--format", "json")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var descriptions []ChainDescription
	require.NoError(t, json.Unmarshal(data, &descriptions))
	require.Len(t, descriptions, 1)

	d := descriptions[0]
	assert.Equal(t, "lasso", d.Name)
	assert.Equal(t, []string{"scale", "model"}, d.Stages)
	assert.Equal(t, map[string]string{"x": "array[float, (?, ?)]"}, d.RequiredInput)
	assert.Equal(t, map[string]string{
		"x": "array[float, (?, ?)]",
		"y": "sequence[float]",
	}, d.RequiredFitInput)
	assert.Equal(t, map[string]string{
		"x":     "array[float, (?, ?)]",
		"y_hat": "sequence[float]",
	}, d.ProducedOutput)
	assert.NotEmpty(t, d.Fingerprint)
}

func TestDescribeAllChains(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "describe", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `chain "broken"`)
	assert.Contains(t, out, `chain "lasso"`)
}
