package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaflow/schemaflow/internal/store"
)

func TestCheckConsistentChain(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "check", dir, "--chain", "lasso")
	require.NoError(t, err)
	assert.Contains(t, out, `chain "lasso": consistent`)
}

func TestCheckReportsViolations(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "check", dir, "--chain", "broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `chain "broken": 1 violation`)
	assert.Contains(t, out, `[MISSING_KEY] use/transform key "b"`)
}

func TestCheckAllChains(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "check", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	// Chains come out sorted by name.
	assert.Contains(t, out, `chain "broken": 1 violation`)
	assert.Contains(t, out, `chain "lasso": consistent`)
}

func TestCheckUnknownChain(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "check", dir, "--chain", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `chain "nope" not declared`)
}

func TestCheckMissingDirectory(t *testing.T) {
	out, err := execute(t, "check", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "declaration directory not found")
}

func TestCheckJSONOutput(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "check", dir, "--chain", "lasso", "--format", "json")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result CheckResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.Consistent)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "lasso", result.Reports[0].Chain)
	assert.NotEmpty(t, result.Reports[0].Fingerprint)
}

func TestCheckJSONViolations(t *testing.T) {
	dir := writeDecls(t)

	out, err := execute(t, "check", dir, "--chain", "broken", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_INCONSISTENT", resp.Error.Code)
}

func TestCheckRecordsReports(t *testing.T) {
	dir := writeDecls(t)
	dbPath := filepath.Join(t.TempDir(), "reports.db")

	_, err := execute(t, "check", dir, "--chain", "lasso", "--db", dbPath)
	require.NoError(t, err)

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.ListReports(context.Background(), "lasso", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].ViolationCount)
	assert.True(t, records[0].Report.Consistent)
}
