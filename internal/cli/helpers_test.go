package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/qimcis/raq/internal/testutil"
)

const companyDefs = `Employees(Name, Age) = {
  "A", 30
  "B", 25
}

Departments(Name, DeptId) = {
  "A", 1
  "B", 2
}

Query: σ Age > 26 (Employees)
Query: π Name (Employees) ∪ π Name (Departments)
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// testOptions returns root options with a fixed query ID.
func testOptions(format string) *RootOptions {
	return &RootOptions{
		Format:      format,
		IDGenerator: testutil.NewFixedIDGenerator("test-query-cli"),
	}
}

// execute runs cmd with args and stdin, returning stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
