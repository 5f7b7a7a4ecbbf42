package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qimcis/raq/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportSummary is the JSON payload of the import command.
type ImportSummary struct {
	Database  string   `json:"database"`
	Relations []string `json:"relations"`
	Rows      int      `json:"rows"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <defs-file>...",
		Short: "Save relations into a SQLite database",
		Long: `Load relations from one or more definition files and save them into a
SQLite database (created if it doesn't exist). A relation that already
exists in the database is replaced.

Example:
  raq import company.txt extra.cue --db company.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, paths []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	logger := opts.Logger()

	src, err := opts.loadSources(ctx, paths, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load relations", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := st.SaveEnvironment(ctx, src.Relations); err != nil {
		return WrapExitError(ExitCommandError, "failed to save relations", err)
	}

	summary := ImportSummary{Database: opts.Database, Relations: src.Relations.Names()}
	for _, rel := range src.Relations {
		summary.Rows += rel.Len()
	}
	logger.Info("relations imported", "db", opts.Database, "relations", len(summary.Relations), "rows", summary.Rows)

	f := opts.formatter(cmd)
	if f.isJSON() {
		return f.Success(summary)
	}
	return f.Success(fmt.Sprintf("Imported %d relations (%d rows) into %s",
		len(summary.Relations), summary.Rows, opts.Database))
}
