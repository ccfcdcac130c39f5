package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/ecoaction/internal/document"
	"github.com/Lllllllleong/ecoaction/internal/schema/schematest"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	configPath, distribution = "", ""
	kindName, asSection, ownerID = "", false, "local"

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeObject(t *testing.T, name string, obj document.Object) string {
	t.Helper()
	b, err := json.Marshal(obj)
	require.NoError(t, err)
	return writeFile(t, name, "Sure! Here it is:\n```json\n"+string(b)+"\n```")
}

func TestExtract_PrintsRecoveredDocument(t *testing.T) {
	path := writeFile(t, "raw.txt", `Result: {'score': 7, "tags": ['a', 'b'],}`)

	out, _, err := execute(t, "extract", path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, float64(7), got["score"])
	assert.Equal(t, []any{"a", "b"}, got["tags"])
}

func TestExtract_DegradedExitsWithError(t *testing.T) {
	path := writeFile(t, "raw.txt", "I cannot provide that.")

	out, _, err := execute(t, "extract", "--kind", "profile", path)
	assert.ErrorIs(t, err, document.ErrExtractionDegraded)
	assert.Contains(t, out, document.DiagnosticField)
	assert.Contains(t, out, `"household_size"`)
}

func TestValidate_ReportsViolations(t *testing.T) {
	path := writeObject(t, "plan.txt", schematest.ChallengePlan("easy", "easy", "easy", "medium", "hard", "hard"))

	_, stderr, err := execute(t, "validate", "--kind", "challenge_plan", path)
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, stderr, "challenges: medium: expected 2, got 1")
	assert.Contains(t, stderr, "challenges: hard: expected 1, got 2")
}

func TestValidate_DistributionOverride(t *testing.T) {
	path := writeObject(t, "plan.txt", schematest.ChallengePlan("easy", "easy", "easy", "medium", "hard", "hard"))

	out, _, err := execute(t, "validate", "--kind", "challenge_plan", "--distribution", "easy=3,medium=1,hard=2", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"challenges"`)
}

func TestValidate_RequiresKind(t *testing.T) {
	_, _, err := execute(t, "validate", writeFile(t, "x.txt", "{}"))
	assert.ErrorContains(t, err, "--kind is required")
}

func TestMerge_PrintsCompositeRecord(t *testing.T) {
	profile := writeObject(t, "profile.txt", schematest.Profile())
	analysis := writeObject(t, "analysis.txt", schematest.Analysis())

	out, _, err := execute(t, "merge", "--owner", "u42", profile, analysis)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "u42", got["owner_id"])
	assert.Equal(t, []any{"profile", "footprint_analysis"}, got["sources"])
}

func TestSchemas_PrintsInvariants(t *testing.T) {
	out, _, err := execute(t, "schemas", "challenge_plan")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: challenge_plan")
	assert.Contains(t, out, "len(challenges) == 6")
	assert.Contains(t, out, "count(challenges by difficulty) == {easy=3,medium=2,hard=1}")
	assert.NotContains(t, out, "kind: profile")

	all, _, err := execute(t, "schemas")
	require.NoError(t, err)
	for _, kind := range []string{"profile", "footprint_analysis", "challenge_plan", "daily_task_batch", "update_plan"} {
		assert.Contains(t, all, "kind: "+kind)
	}
}

func TestSchemas_UnknownKind(t *testing.T) {
	_, _, err := execute(t, "schemas", "recipe")
	assert.Error(t, err)
}
