package printer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/testutil"
)

func sample() *relation.Relation {
	return testutil.Relation("Sample", []string{"Name", "Age", "Score", "Active", "Note"},
		[]any{"A", 30, 1.5, true, nil},
		[]any{`B "q"`, 25, 2.0, false, "x, y"},
	)
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestText_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sample()))
	newGoldie(t).Assert(t, "text", buf.Bytes())
}

func TestJSON_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sample()))
	newGoldie(t).Assert(t, "json", buf.Bytes())
}

func TestCSV_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, sample()))
	newGoldie(t).Assert(t, "csv", buf.Bytes())
}

func TestText_Empty(t *testing.T) {
	var buf bytes.Buffer
	rel := testutil.Relation("Select(Employees)", []string{"Name", "Age"})
	require.NoError(t, Text(&buf, rel))
	assert.Equal(t, "Select(Employees) = {Name, Age\n}\n\nName\tAge\n", buf.String())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, testutil.Employees()))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// border, header, border, two rows, border
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[1], "Name")
	assert.Contains(t, lines[1], "Age")
	assert.Contains(t, out, "30")
	assert.Contains(t, out, "25")
	assert.True(t, strings.HasPrefix(lines[0], "+"))
}

func TestToJSON_EmptyRelation(t *testing.T) {
	data, err := json.Marshal(ToJSON(&relation.Relation{Name: "R"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"R","header":[],"rows":[]}`, string(data))
}

func TestWrite_Dispatch(t *testing.T) {
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, f, testutil.Employees()))
			assert.NotEmpty(t, buf.String())
		})
	}

	var buf bytes.Buffer
	assert.Error(t, Write(&buf, "xml", testutil.Employees()))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("table")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}
