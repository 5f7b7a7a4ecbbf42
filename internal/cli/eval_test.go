package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewEvalCommand(testOptions("text")), "", "Employees ⋈ Departments", "--defs", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Join(Employees,Departments) = {Name, Age, DeptId\n")
	assert.Contains(t, out, "Name\tAge\tDeptId\n")
}

func TestEval_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewEvalCommand(testOptions("json")), "", "π Name (σ Age < 26 (Employees))", "-d", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test-query-cli", resp.TraceID)
	assert.Equal(t, map[string]any{
		"name":   "Project(Select(Employees))",
		"header": []any{"Name"},
		"rows":   []any{[]any{"B"}},
	}, resp.Data)
}

func TestEval_QueryErrorJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewEvalCommand(testOptions("json")), "", "Employees ∪ Departments", "--defs", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "test-query-cli", resp.TraceID)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SCHEMA_MISMATCH", resp.Error.Code)
}

func TestEval_QueryErrorText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "company.txt", companyDefs)

	out, err := execute(t, NewEvalCommand(testOptions("text")), "", "σ Age > (Employees)", "--defs", path)
	require.Error(t, err)
	assert.Contains(t, out, "Error [PARSE_ERROR]: ")
}

func TestEval_RequiresSource(t *testing.T) {
	_, err := execute(t, NewEvalCommand(testOptions("text")), "", "Employees")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "at least one of --defs or --db is required")
}

func TestEval_MissingDatabase(t *testing.T) {
	_, err := execute(t, NewEvalCommand(testOptions("text")), "", "Employees",
		"--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestEval_FromImportedDatabase(t *testing.T) {
	dir := t.TempDir()
	defs := writeFile(t, dir, "company.txt", companyDefs)
	db := filepath.Join(dir, "company.db")

	_, err := execute(t, NewImportCommand(testOptions("text")), "", defs, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, NewEvalCommand(testOptions("csv")), "", "σ Age > 26 (Employees)", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Name,Age\nA,30\n", out)
}

func TestEval_DatabaseOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "company.db")
	_, err := execute(t, NewImportCommand(testOptions("text")), "",
		writeFile(t, dir, "a.txt", "Employees(Name) = {\n  \"Z\"\n}\n"), "--db", db)
	require.NoError(t, err)

	out, err := execute(t, NewEvalCommand(testOptions("csv")), "", "Employees",
		"--defs", writeFile(t, dir, "company.txt", companyDefs), "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Name\nZ\n", out)
}
