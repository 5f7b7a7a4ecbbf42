package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQL_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewSQLCommand(testOptions("text")), "", `σ Name == "A" (Employees)`, "--defs", path)
	require.NoError(t, err)
	assert.Contains(t, out, `SELECT * FROM (`)
	assert.Contains(t, out, `WHERE (t."Name" IS ?)`)
	assert.Contains(t, out, "Params: \"A\"\n")
	assert.NotContains(t, out, "Warning:")
	assert.NotContains(t, out, "Check:")
}

func TestSQL_Warnings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewSQLCommand(testOptions("text")), "", `σ Age > null (Employees)`, "--defs", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: ")
}

func TestSQL_Check(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewSQLCommand(testOptions("text")), "",
		"Employees ⋈[Age > DeptId] Departments", "--defs", path, "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "Check: SQLite result matches evaluator (4 rows)\n")
}

func TestSQL_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewSQLCommand(testOptions("json")), "",
		"π Name (Employees) − π Name (Departments)", "--defs", path, "--check")
	require.NoError(t, err)

	var resp struct {
		Status  string    `json:"status"`
		Data    SQLOutput `json:"data"`
		TraceID string    `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test-query-cli", resp.TraceID)
	assert.Contains(t, resp.Data.SQL, " EXCEPT ")
	assert.Equal(t, []any{}, resp.Data.Params)
	assert.Equal(t, []string{"Name"}, resp.Data.Header)
	assert.True(t, resp.Data.Portable)
	assert.True(t, resp.Data.Checked)
	assert.Equal(t, 0, resp.Data.Rows)
}

func TestSQL_QueryError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewSQLCommand(testOptions("text")), "", "π Salary (Employees)", "--defs", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNKNOWN_ATTRIBUTE]: ")
}

func TestSQL_RequiresDefs(t *testing.T) {
	_, err := execute(t, NewSQLCommand(testOptions("text")), "", "Employees")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "defs")
}

func TestSQL_CheckReportsEvaluatorError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewSQLCommand(testOptions("text")), "", `σ Age > null (Employees)`, "--defs", path, "--check")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNORDERED_COMPARISON]: ")
}
