package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qimcis/raq/internal/engine"
	"github.com/qimcis/raq/internal/printer"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "table" | "json" | "csv"

	// IDGenerator allows overriding the query ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.QueryIDGenerator

	logger *slog.Logger
}

// NewRootCommand creates the root command for the raq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "raq",
		Short: "raq - relational algebra queries",
		Long: `Evaluate relational-algebra queries (σ, π, ⋈, ∪, ∩, −) over relations
defined in text, CUE, parquet or SQLite sources.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if _, err := printer.ParseFormat(opts.Format); err != nil {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, printer.Formats)
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			slog.SetDefault(opts.logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|table|json|csv)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// newLogger builds the text logger every command logs through: Info by
// default, Debug with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// Logger returns the command logger, or slog.Default() when the root
// command's pre-run hook has not installed one.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}
