package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: fix_typo
description: "A single typo is fixed"
rules:
  content: |
    [replacer]
    teh=the
document: "#replacer on\n"
steps:
  - join: alice
  - run: true
  - insert: { user: alice, text: "teh" }
  - run: true
assertions:
  - type: final_text
    text: "#replacer on\nthe"
`

const failingScenario = `name: wrong_expectation
description: "Asserts text the replacer never produces"
rules:
  content: |
    [replacer]
    teh=the
document: "#replacer on\n"
steps:
  - join: alice
  - run: true
  - insert: { user: alice, text: "teh" }
  - run: true
assertions:
  - type: final_text
    text: "#replacer on\nteh"
`

func TestTest_BundledScenarios(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "../harness/testdata/scenarios")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ basic_typos")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_GoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fix_typo.yaml", passingScenario)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ fix_typo (golden updated)")

	golden := filepath.Join(dir, "golden", "fix_typo.golden")
	assert.Contains(t, readFile(t, golden), `"scenario_name":"fix_typo"`)

	out, _, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ fix_typo")

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0644))
	out, _, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_FailingAssertion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.yaml", passingScenario)
	writeFile(t, dir, "bad.yaml", failingScenario)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTest_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.yaml", passingScenario)
	writeFile(t, dir, "bad.yaml", failingScenario)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTest_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.yaml", passingScenario)
	writeFile(t, dir, "bad.yaml", failingScenario)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "ok")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTest_InvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\nunknown_field: 1\n")

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_NoScenarios(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
