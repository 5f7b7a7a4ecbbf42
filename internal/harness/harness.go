package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/qimcis/raq/internal/engine"
	"github.com/qimcis/raq/internal/loader"
	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/querysql"
	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/store"
	"github.com/qimcis/raq/internal/testutil"
	"github.com/qimcis/raq/internal/value"
)

// Harness is the test execution engine.
// It runs scenario cases with a deterministic query ID.
type Harness struct {
	engine *engine.Engine
	store  *store.Store // nil unless the scenario cross-checks on SQLite
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load definition files and inline definitions
// 2. If the scenario asks for it, copy the relations into a fresh in-memory
// database
// 3. Evaluate each case and check its expectation
// 4. Return result with pass/fail, case outcomes and errors
//
// An error is returned only when the scenario cannot run at all; failed
// cases are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	env, err := loadEnvironment(ctx, logger, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	h := &Harness{
		engine: engine.New(env,
			engine.WithLogger(logger),
			engine.WithQueryIDGenerator(testutil.NewFixedIDGenerator(scenario.QueryID)),
		),
		logger: logger,
	}

	if scenario.SQL {
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		if err := st.SaveEnvironment(ctx, env); err != nil {
			return nil, fmt.Errorf("failed to save relations: %w", err)
		}
		h.store = st
	}

	result := NewResult()
	for i, c := range scenario.Cases {
		cr, errs := h.runCase(ctx, c)
		result.AddCase(cr)
		for _, msg := range errs {
			result.AddError(fmt.Sprintf("case %d (%s): %s", i, c.Query, msg))
		}
	}
	return result, nil
}

func loadEnvironment(ctx context.Context, logger *slog.Logger, scenario *Scenario) (relation.Environment, error) {
	src, err := loader.LoadFiles(ctx, logger, scenario.Files...)
	if err != nil {
		return nil, err
	}
	if scenario.Definitions != "" {
		inline, err := loader.Parse(ctx, scenario.Name+".txt", []byte(scenario.Definitions))
		if err != nil {
			return nil, err
		}
		src = loader.Merge(logger, src, inline)
	}
	return src.Relations, nil
}

// runCase evaluates one case and returns its outcome with any failure
// messages.
func (h *Harness) runCase(ctx context.Context, c Case) (CaseResult, []string) {
	res, err := h.engine.Query(c.Query)
	cr := CaseResult{Query: c.Query, QueryID: res.ID}

	if err != nil {
		cr.Error = string(qerr.KindOf(err))
		var errs []string
		switch {
		case c.Error == "":
			errs = append(errs, fmt.Sprintf("unexpected error: %v", err))
		case cr.Error != c.Error:
			errs = append(errs, fmt.Sprintf("expected error %s, got %v", c.Error, err))
		}
		cr.Pass = len(errs) == 0
		return cr, errs
	}

	rel := res.Relation
	cr.Name = rel.Name
	cr.Header = rel.Header
	cr.Rows = renderRows(rel)

	var errs []string
	if c.Error != "" {
		errs = append(errs, fmt.Sprintf("expected error %s, query succeeded", c.Error))
	}
	if c.Expect != nil {
		errs = append(errs, CheckExpectation(rel, c.Expect)...)
	}
	if h.store != nil {
		if err := h.crossCheck(ctx, res, rel); err != nil {
			errs = append(errs, err.Error())
		}
	}
	cr.Pass = len(errs) == 0
	return cr, errs
}

// crossCheck compiles the query to SQL, runs it on the store and compares
// the outcome with the evaluator's.
func (h *Harness) crossCheck(ctx context.Context, res *engine.Result, want *relation.Relation) error {
	q, err := querysql.NewCompiler(querysql.CatalogOf(h.engine.Environment())).Compile(res.Expr)
	if err != nil {
		return fmt.Errorf("sql backend: %w", err)
	}
	got, err := q.Run(ctx, h.store)
	if err != nil {
		return fmt.Errorf("sql backend: %w", err)
	}
	if !slices.Equal(want.Header, got.Header) || !relation.EqualRows(want, got) {
		return fmt.Errorf("sql backend disagrees: evaluator %s %v, sql %s %v",
			strings.Join(want.Header, ","), renderRows(want),
			strings.Join(got.Header, ","), renderRows(got))
	}
	h.logger.Debug("sql backend agrees", "query_id", res.ID, "rows", got.Len())
	return nil
}

// renderRows renders each row as a parenthesized literal tuple, sorted.
func renderRows(rel *relation.Relation) []string {
	out := make([]string, len(rel.Rows))
	for i, row := range rel.Rows {
		out[i] = renderRow(row)
	}
	sort.Strings(out)
	return out
}

func renderRow(row relation.Row) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = value.Literal(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
