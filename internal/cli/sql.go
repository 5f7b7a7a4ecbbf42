package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qimcis/raq/internal/algebra"
	"github.com/qimcis/raq/internal/parser"
	"github.com/qimcis/raq/internal/querysql"
	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/store"
	"github.com/qimcis/raq/internal/value"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	Defs  []string
	Check bool // run the SQL on SQLite and compare with the evaluator
}

// SQLOutput is the JSON payload of the sql command.
type SQLOutput struct {
	SQL      string   `json:"sql"`
	Params   []any    `json:"params"`
	Header   []string `json:"header"`
	Portable bool     `json:"portable"`
	Warnings []string `json:"warnings,omitempty"`
	Checked  bool     `json:"checked,omitempty"`
	Rows     int      `json:"rows,omitempty"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <expr>",
		Short: "Translate an expression to SQLite SQL",
		Long: `Print the parameterized SQLite statement for an expression, its
parameters and any portability warnings.

With --check, the relations are copied into an in-memory SQLite database,
the statement is executed and its result compared with the evaluator's.

Exit codes:
  0 - Translated (and, with --check, results agree)
  1 - Query error, or the SQL result differs from the evaluator's
  2 - Command error

Example:
  raq sql 'π Name (σ Age > 30 (Employees))' --defs company.txt --check`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Defs, "defs", "d", nil, "definitions file (repeatable, required)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "run on SQLite and compare with the evaluator")
	_ = cmd.MarkFlagRequired("defs")

	return cmd
}

func runSQL(opts *SQLOptions, text string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := opts.formatter(cmd)

	src, err := opts.loadSources(ctx, opts.Defs, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load relations", err)
	}

	queryID := opts.idGenerator().Generate()
	logger := opts.Logger().With("query_id", queryID)

	expr, err := parser.Parse(text)
	if err != nil {
		if outErr := f.QueryError(err, queryID); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "query failed", err)
	}

	q, err := querysql.NewCompiler(querysql.CatalogOf(src.Relations)).Compile(expr)
	if err != nil {
		if outErr := f.QueryError(err, queryID); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "translation failed", err)
	}
	logger.Debug("query translated", "query", text, "params", len(q.Params))

	validation := algebra.Validate(expr)
	out := SQLOutput{
		SQL:      q.SQL,
		Params:   q.Params,
		Header:   q.Header,
		Portable: validation.IsPortable,
		Warnings: validation.Warnings,
	}
	if out.Params == nil {
		out.Params = []any{}
	}

	var mismatch error
	if opts.Check {
		want, err := opts.newEngine(src.Relations).Evaluate(expr)
		if err != nil {
			if outErr := f.QueryError(err, queryID); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, "query failed", err)
		}
		got, err := checkOnSQLite(cmd, src.Relations, q)
		if err != nil {
			return WrapExitError(ExitCommandError, "sql check failed", err)
		}
		out.Checked = true
		out.Rows = got.Len()
		if !sameResult(want, got) {
			mismatch = fmt.Errorf("evaluator returned %d rows, SQLite returned %d rows with header %v",
				want.Len(), got.Len(), got.Header)
		}
		logger.Debug("sql check finished", "rows", got.Len(), "match", mismatch == nil)
	}

	if f.isJSON() {
		response := CLIResponse{Status: "ok", Data: out, TraceID: queryID}
		if mismatch != nil {
			response.Status = "error"
			response.Error = &CLIError{Code: "E_SQL_MISMATCH", Message: mismatch.Error()}
		}
		if err := encodeJSON(f.Writer, response); err != nil {
			return err
		}
	} else {
		writeSQLText(f.Writer, out)
		if opts.Check && mismatch == nil {
			fmt.Fprintf(f.Writer, "Check: SQLite result matches evaluator (%d rows)\n", out.Rows)
		}
		if mismatch != nil {
			fmt.Fprintf(f.Writer, "Check: MISMATCH: %v\n", mismatch)
		}
	}

	if mismatch != nil {
		return WrapExitError(ExitFailure, "sql result differs from evaluator", mismatch)
	}
	return nil
}

func checkOnSQLite(cmd *cobra.Command, env relation.Environment, q *querysql.Query) (*relation.Relation, error) {
	ctx := commandContext(cmd)
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if err := st.SaveEnvironment(ctx, env); err != nil {
		return nil, err
	}
	return q.Run(ctx, st)
}

func sameResult(want, got *relation.Relation) bool {
	return slices.Equal(want.Header, got.Header) && relation.EqualRows(want, got)
}

func writeSQLText(w io.Writer, out SQLOutput) {
	fmt.Fprintln(w, out.SQL)
	if len(out.Params) > 0 {
		params := make([]string, len(out.Params))
		for i, p := range out.Params {
			v, err := value.FromAny(p)
			if err != nil {
				params[i] = fmt.Sprint(p)
				continue
			}
			params[i] = value.Literal(v)
		}
		fmt.Fprintf(w, "Params: %s\n", strings.Join(params, ", "))
	}
	for _, warning := range out.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}
