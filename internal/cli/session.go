package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/qimcis/raq/internal/engine"
	"github.com/qimcis/raq/internal/loader"
	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/store"
)

// maxQueryLine bounds one line read by the REPL.
const maxQueryLine = 16 << 20

// cellsHelp describes how cells in text definitions are typed.
const cellsHelp = `Definition cells: unquoted 30, 1.5, true and null are typed values.
A quoted cell ("30" or '30') always stays a string.`

func (o *RootOptions) idGenerator() engine.QueryIDGenerator {
	if o.IDGenerator == nil {
		return engine.UUIDv7Generator{}
	}
	return o.IDGenerator
}

// newEngine creates an evaluator over env that logs through the command
// logger and draws query IDs from the configured generator.
func (o *RootOptions) newEngine(env relation.Environment) *engine.Engine {
	return engine.New(env,
		engine.WithLogger(o.Logger()),
		engine.WithQueryIDGenerator(o.idGenerator()),
	)
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	format := o.Format
	if format == "" {
		format = "text"
	}
	return &OutputFormatter{
		Format:    format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadSources loads and merges definition files, then the relations of the
// SQLite database at db (if any), which win over same-named file relations.
func (o *RootOptions) loadSources(ctx context.Context, defs []string, db string) (*loader.Source, error) {
	logger := o.Logger()

	src, err := loader.LoadFiles(ctx, logger, defs...)
	if err != nil {
		return nil, err
	}
	if db == "" {
		return src, nil
	}

	if _, err := os.Stat(db); err != nil {
		return nil, fmt.Errorf("database not found: %s", db)
	}
	st, err := store.Open(db)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	env, err := st.LoadRelations(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("relations loaded from database", "path", db, "relations", len(env))
	return loader.Merge(logger, src, &loader.Source{Relations: env}), nil
}

// readInput reads path, or all of stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) (string, []byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return "stdin.txt", data, err
	}
	data, err := os.ReadFile(path)
	return path, data, err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
