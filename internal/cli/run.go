package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qimcis/raq/internal/loader"
	"github.com/qimcis/raq/internal/printer"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Echo bool // print the input before the results
}

// QueryOutput is one query's entry in JSON run output.
type QueryOutput struct {
	Index   int       `json:"index"`
	Query   string    `json:"query"`
	QueryID string    `json:"query_id"`
	Result  any       `json:"result,omitempty"`
	Error   *CLIError `json:"error,omitempty"`
}

// noQueriesMessage is printed when the input has no Query: lines.
const noQueriesMessage = "No queries found. Add lines like: 'Query: σ Age > 30 (Employees)'"

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Evaluate every query in a definitions file",
		Long: `Load relation definitions from a file (or stdin) and evaluate every
"Query: <expr>" line in order, printing each query and its result.

A failed query is reported and the remaining queries still run.

` + cellsHelp + `

Exit codes:
  0 - All queries succeeded
  1 - No queries found, or one or more queries failed
  2 - Command error (unreadable input, malformed definitions)

Examples:
  raq run examples/company.txt
  raq run --format table examples/company.cue
  cat examples/company.txt | raq run`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runQueries(opts, path, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Echo, "echo", false, "print the input and row counts along with the results")

	return cmd
}

func runQueries(opts *RunOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()
	logger := opts.Logger()

	name, data, err := readInput(cmd, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	src, err := loader.Parse(ctx, name, data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load definitions", err)
	}
	logger.Debug("definitions loaded", "input", name, "relations", len(src.Relations), "queries", len(src.Queries))

	if len(src.Queries) == 0 {
		fmt.Fprintln(w, noQueriesMessage)
		return NewExitError(ExitFailure, "no queries found")
	}

	eng := opts.newEngine(src.Relations)
	jsonOut := opts.Format == string(printer.FormatJSON)

	if opts.Echo && !jsonOut {
		fmt.Fprintln(w, "=== Input ===")
		fmt.Fprintln(w, strings.TrimRight(string(data), " \t\r\n"))
		fmt.Fprintln(w, "\n=== Output ===")
	}

	outputs := make([]QueryOutput, 0, len(src.Queries))
	failed := 0
	for i, q := range src.Queries {
		res, err := eng.Query(q)
		out := QueryOutput{Index: i + 1, Query: q, QueryID: res.ID}
		if err != nil {
			failed++
			out.Error = &CLIError{Code: ErrorCode(err, CodeCommand), Message: err.Error()}
			logger.Warn("query failed", "query_id", res.ID, "index", i+1, "error", err)
		} else {
			out.Result = printer.ToJSON(res.Relation)
		}
		outputs = append(outputs, out)

		if jsonOut {
			continue
		}
		if opts.Echo {
			fmt.Fprintf(w, "\n--- Query %d ---\n%s\n", i+1, q)
		} else {
			fmt.Fprintf(w, "\n=== Query %d ===\n%s\n\n", i+1, q)
		}
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		if err := printer.Write(w, printer.Format(opts.Format), res.Relation); err != nil {
			return WrapExitError(ExitCommandError, "failed to write result", err)
		}
		if opts.Echo {
			fmt.Fprintf(w, "Rows: %d\n\n", res.Relation.Len())
		}
	}

	if jsonOut {
		response := CLIResponse{Status: "ok", Data: outputs}
		if failed > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_QUERY_FAILED",
				Message: fmt.Sprintf("%d query(s) failed", failed),
			}
		}
		if err := encodeJSON(w, response); err != nil {
			return err
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d query(s) failed", failed))
	}
	return nil
}
