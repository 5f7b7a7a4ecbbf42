package cli

import (
	"github.com/spf13/cobra"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Defs     []string
	Database string
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expr>",
		Short: "Evaluate one expression",
		Long: `Evaluate a single relational-algebra expression against relations loaded
from definition files and/or a SQLite database written by "raq import".
Relations from the database win over same-named relations from files.

Examples:
  raq eval 'σ Age > 30 (Employees)' --defs company.txt
  raq eval 'Employees ⋈ Departments' --db company.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Defs, "defs", "d", nil, "definitions file (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runEval(opts *EvalOptions, expr string, cmd *cobra.Command) error {
	if len(opts.Defs) == 0 && opts.Database == "" {
		return NewExitError(ExitCommandError, "at least one of --defs or --db is required")
	}

	src, err := opts.loadSources(commandContext(cmd), opts.Defs, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load relations", err)
	}

	f := opts.formatter(cmd)
	res, err := opts.newEngine(src.Relations).Query(expr)
	if err != nil {
		if outErr := f.QueryError(err, res.ID); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "query failed", err)
	}
	f.VerboseLog("query %s: %d rows", res.ID, res.Relation.Len())
	return f.Relation(res.Relation, res.ID)
}
