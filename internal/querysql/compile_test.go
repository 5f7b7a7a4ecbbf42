package querysql

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qimcis/raq/internal/algebra"
	"github.com/qimcis/raq/internal/engine"
	"github.com/qimcis/raq/internal/parser"
	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/store"
	"github.com/qimcis/raq/internal/testutil"
)

func compileText(t *testing.T, catalog map[string][]string, text string) (*Query, error) {
	t.Helper()
	expr, err := parser.Parse(text)
	require.NoError(t, err)
	return NewCompiler(catalog).Compile(expr)
}

func companyCatalog() map[string][]string {
	return CatalogOf(testutil.CompanyEnvironment())
}

func TestCompile_GoldenSQL(t *testing.T) {
	q, err := compileText(t, companyCatalog(), "σ Age > 26 (Employees)")
	require.NoError(t, err)

	want := `SELECT * FROM (` +
		`SELECT DISTINCT t."Name" AS "Name", t."Age" AS "Age" FROM (` +
		`SELECT DISTINCT "Name" AS "Name", "Age" AS "Age" FROM "Employees"` +
		`) AS t WHERE (t."Age" > ?)` +
		`) AS q ORDER BY "Name" ASC, "Age" ASC`
	assert.Equal(t, want, q.SQL)
	assert.Equal(t, []any{int64(26)}, q.Params)
	assert.Equal(t, []string{"Name", "Age"}, q.Header)
	assert.Equal(t, "Select(Employees)", q.Name)
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	q, err := compileText(t, companyCatalog(), `σ Name == "Robert'); DROP TABLE Employees;--" (Employees)`)
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, "Robert")
	assert.NotContains(t, q.SQL, "DROP")
	assert.Equal(t, []any{"Robert'); DROP TABLE Employees;--"}, q.Params)
}

func TestCompile_OrderByMandatory(t *testing.T) {
	queries := []string{
		"Employees",
		"π Name (Employees)",
		"Employees ⋈ Departments",
		"π Name (Employees) ∪ π Name (Departments)",
	}
	for _, text := range queries {
		t.Run(text, func(t *testing.T) {
			q, err := compileText(t, companyCatalog(), text)
			require.NoError(t, err)
			assert.Contains(t, q.SQL, ") AS q ORDER BY ")
		})
	}
}

func TestCompile_Headers(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"π Age, Name, Age (Employees)", []string{"Age", "Name"}},
		{"Employees ⋈ Departments", []string{"Name", "Age", "DeptId"}},
		{"Employees ⋈[Age > DeptId] Departments", []string{"Name", "Age", "Name_right", "DeptId"}},
		{"Employees ⋈[true] Employees", []string{"Name", "Age", "Name_right", "Age_right"}},
		{"π Name, Age (Employees) − π Age, Name (Employees)", []string{"Name", "Age"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			q, err := compileText(t, companyCatalog(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Header)
		})
	}
}

func TestCompile_Predicates(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		where  string
		params []any
	}{
		{
			name:  "equality is null safe",
			text:  `σ Name = "A" (Employees)`,
			where: `WHERE (t."Name" IS ?)`,
			params: []any{"A"},
		},
		{
			name:   "inequality is null safe",
			text:   `σ Name != null (Employees)`,
			where:  `WHERE (t."Name" IS NOT NULL)`,
			params: nil,
		},
		{
			name:   "logic",
			text:   `σ not (Age < 26 or Name == "A") (Employees)`,
			where:  `WHERE (NOT ((t."Age" < ?) OR (t."Name" IS ?)))`,
			params: []any{int64(26), "A"},
		},
		{
			name:  "constant condition",
			text:  `σ 0 (Employees)`,
			where: `WHERE 0`,
		},
		{
			name:  "attribute truthiness",
			text:  `σ Name (Employees)`,
			where: `WHERE (CASE WHEN t."Name" IS NULL THEN 0`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := compileText(t, companyCatalog(), tt.text)
			require.NoError(t, err)
			assert.Contains(t, q.SQL, tt.where)
			if tt.params == nil {
				assert.Empty(t, q.Params)
			} else {
				assert.Equal(t, tt.params, q.Params)
			}
		})
	}
}

func TestCompile_ParamsInTextualOrder(t *testing.T) {
	q, err := compileText(t, companyCatalog(),
		`σ Age > 1 (Employees) ⋈[DeptId < 2] σ Name != "Z" (Departments)`)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "Z", int64(2)}, q.Params)
	assert.Equal(t, 3, strings.Count(q.SQL, "?"))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		text string
		kind qerr.Kind
	}{
		{"Missing", qerr.KindUnknownRelation},
		{"π Salary (Employees)", qerr.KindUnknownAttribute},
		{"σ Salary > 1 (Employees)", qerr.KindAttributeNotFound},
		{"Employees ⋈[left.Salary = 1] Departments", qerr.KindAttributeNotFound},
		{"Employees ∪ Departments", qerr.KindSchemaMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := compileText(t, companyCatalog(), tt.text)
			require.Error(t, err)
			assert.True(t, qerr.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestCompile_NilExpression(t *testing.T) {
	_, err := NewCompiler(companyCatalog()).Compile(nil)
	assert.Error(t, err)
}

func TestCompile_UnknownSetOperation(t *testing.T) {
	expr := algebra.SetOp{Kind: "xor", Left: algebra.Ref{Name: "Employees"}, Right: algebra.Ref{Name: "Employees"}}
	_, err := NewCompiler(companyCatalog()).Compile(expr)
	require.Error(t, err)
	assert.True(t, qerr.Is(err, qerr.KindUnsupported))
}

func TestCatalogOf(t *testing.T) {
	assert.Equal(t, map[string][]string{
		"Employees":   {"Name", "Age"},
		"Departments": {"Name", "DeptId"},
	}, companyCatalog())
}

// crossCheckEnvironment avoids booleans, which SQLite stores as integers.
func crossCheckEnvironment() relation.Environment {
	return testutil.Environment(
		testutil.Employees(),
		testutil.Departments(),
		testutil.Relation("Scores", []string{"Name", "Score"},
			[]any{"A", 1.0},
			[]any{"B", 2.5},
			[]any{"C", nil},
		),
		testutil.Relation("Flags", []string{"K", "V"},
			[]any{1, ""},
			[]any{2, "x"},
			[]any{3, 0},
			[]any{4, 1.5},
			[]any{5, nil},
		),
	)
}

func TestCompile_MatchesEvaluator(t *testing.T) {
	ctx := context.Background()
	env := crossCheckEnvironment()

	s, err := store.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.SaveEnvironment(ctx, env))

	eng := engine.New(env, engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	compiler := NewCompiler(CatalogOf(env))

	queries := []string{
		"Employees",
		"σ Age > 26 (Employees)",
		"σ Age >= 25 and Name != \"B\" (Employees)",
		"σ not (Age < 26 or Name == \"A\") (Employees)",
		"π Name (Employees)",
		"π Age, Name (Employees)",
		"Employees ⋈ Departments",
		"Employees ⋈ Scores",
		"Employees ⋈[Employees.Name = Departments.Name] Departments",
		"Employees ⋈[Age > DeptId] Departments",
		"Employees ⋈[left.Age < right.Age] Employees",
		"π Name (Employees) ∪ π Name (Departments)",
		"π Name (Employees) ∪ π Name (Scores)",
		"π Name (Scores) ∩ π Name (Employees)",
		"π Name (Scores) − π Name (σ Age > 26 (Employees))",
		"π Name, Age (Employees) − π Age, Name (σ Age < 26 (Employees))",
		"σ V (Flags)",
		"σ not V (Flags)",
		"σ Score == null (Scores)",
		"σ Score == 1 (Scores)",
		"σ true (Employees)",
		"π K (Flags) ⋈ π DeptId (Departments)",
	}
	for _, text := range queries {
		t.Run(text, func(t *testing.T) {
			expr, err := parser.Parse(text)
			require.NoError(t, err)

			want, err := eng.Evaluate(expr)
			require.NoError(t, err)

			q, err := compiler.Compile(expr)
			require.NoError(t, err)
			got, err := q.Run(ctx, s)
			require.NoError(t, err)

			assert.Equal(t, want.Header, got.Header)
			assert.True(t, relation.EqualRows(want, got), "evaluator %v, sql %v", want.Rows, got.Rows)
			assert.Equal(t, want.Name, got.Name)
		})
	}
}
