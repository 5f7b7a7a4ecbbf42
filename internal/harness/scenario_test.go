package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "company.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "company", scenario.Name)
	assert.Equal(t, "test-query-company", scenario.QueryID)
	assert.True(t, scenario.SQL)
	assert.Equal(t, []string{filepath.Join("testdata", "scenarios", "defs", "company.txt")}, scenario.Files)
	require.Len(t, scenario.Cases, 4)
	assert.Equal(t, "σ Age > 26 (Employees)", scenario.Cases[0].Query)
	assert.Equal(t, []string{"Name", "Age"}, scenario.Cases[0].Expect.Header)
	assert.Equal(t, []any{"A", 30}, scenario.Cases[0].Expect.Rows[0])
	require.NotNil(t, scenario.Cases[2].Expect.Count)
	assert.Equal(t, 1, *scenario.Cases[2].Expect.Count)
	assert.Equal(t, "UNKNOWN_ATTRIBUTE", scenario.Cases[3].Error)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingDefinitionsFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: missing
description: refers to a file that does not exist
files:
  - nope.txt
cases:
  - query: R
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitions file not found")
}

func TestLoadScenario_AbsoluteFilesKept(t *testing.T) {
	dir := t.TempDir()
	defs := filepath.Join(dir, "defs.txt")
	require.NoError(t, os.WriteFile(defs, []byte("R(A) = {\n  1\n}\n"), 0644))

	path := writeScenario(t, t.TempDir(), `
name: absolute
description: absolute definitions path
files:
  - `+defs+`
cases:
  - query: R
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{defs}, scenario.Files)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "unknown field",
			content: `
name: typo
description: d
definitions: "R(A) = {\n}"
case:
  - query: R
`,
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			content: `
description: d
definitions: "R(A) = {\n}"
cases:
  - query: R
`,
			want: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
definitions: "R(A) = {\n}"
cases:
  - query: R
`,
			want: "description is required",
		},
		{
			name: "no definitions",
			content: `
name: n
description: d
cases:
  - query: R
`,
			want: "definitions or files is required",
		},
		{
			name: "no cases",
			content: `
name: n
description: d
definitions: "R(A) = {\n}"
`,
			want: "cases list is required",
		},
		{
			name: "empty query",
			content: `
name: n
description: d
definitions: "R(A) = {\n}"
cases:
  - expect:
      count: 0
`,
			want: "cases[0]: query is required",
		},
		{
			name: "expect and error",
			content: `
name: n
description: d
definitions: "R(A) = {\n}"
cases:
  - query: R
    error: PARSE_ERROR
    expect:
      count: 0
`,
			want: "mutually exclusive",
		},
		{
			name: "unknown error kind",
			content: `
name: n
description: d
definitions: "R(A) = {\n}"
cases:
  - query: R
    error: OOPS
`,
			want: `unknown error kind "OOPS"`,
		},
		{
			name: "negative count",
			content: `
name: n
description: d
definitions: "R(A) = {\n}"
cases:
  - query: R
    expect:
      count: -1
`,
			want: "count must be non-negative",
		},
		{
			name: "empty with rows",
			content: `
name: n
description: d
definitions: "R(A) = {\n}"
cases:
  - query: R
    expect:
      empty: true
      rows:
        - [1]
`,
			want: "empty contradicts rows/contains",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_InlineDefinitions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: inline
description: inline definitions
definitions: |
  R(A, B) = {
    1, "x"
  }
cases:
  - query: R
    expect:
      empty: false
      rows:
        - [1, "x"]
        - [2, null]
`))
	require.NoError(t, err)
	assert.Contains(t, scenario.Definitions, "R(A, B) = {")
	assert.Equal(t, [][]any{{1, "x"}, {2, nil}}, scenario.Cases[0].Expect.Rows)
}
