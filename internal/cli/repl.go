package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qimcis/raq/internal/loader"
	"github.com/qimcis/raq/internal/printer"
	"github.com/qimcis/raq/internal/relation"
)

const (
	replPrompt = "raq> "
	replHelp   = ":help, :rels, :show <Rel>, :reload, :quit"
)

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl <defs-file>",
		Short: "Query relations interactively",
		Long: `Load relation definitions once, then read queries line by line.

Commands:
  :help            Show help
  :rels            List loaded relation names
  :show <Rel>      Print a relation by name
  :reload          Reload definitions from the defs file
  :quit / :exit    Exit the REPL

Enter an expression directly, or with the prefix "Query: <expr>".
A failed query prints its error and the loop continues.

` + cellsHelp,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

// repl is one interactive session.
type repl struct {
	opts *RootOptions
	cmd  *cobra.Command
	path string
	env  relation.Environment
	out  io.Writer
}

func runRepl(opts *RootOptions, path string, cmd *cobra.Command) error {
	r := &repl{opts: opts, cmd: cmd, path: path, out: cmd.OutOrStdout()}

	env, err := r.load()
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read definitions file '%s'", path), err)
	}
	r.env = env
	eng := opts.newEngine(env)

	fmt.Fprintf(r.out, "Loaded %d relations from %s. Type :help for help.\n", len(env), path)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), maxQueryLine)
	for {
		fmt.Fprint(r.out, replPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if quit := r.command(line[1:]); quit {
				return nil
			}
			eng.SetEnvironment(r.env)
			continue
		}

		expr := line
		if len(line) >= len("query:") && strings.EqualFold(line[:len("query:")], "query:") {
			expr = strings.TrimSpace(line[len("query:"):])
		}
		res, err := eng.Query(expr)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			continue
		}
		r.print(res.Relation)
	}
}

// command runs a colon command and reports whether the session should end.
func (r *repl) command(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		fmt.Fprintln(r.out, "Unknown command: :. Type :help")
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(r.out, replHelp)
	case "rels":
		names := strings.Join(r.env.Names(), ", ")
		if names == "" {
			names = "(none)"
		}
		fmt.Fprintln(r.out, names)
	case "show":
		if len(args) == 0 {
			fmt.Fprintln(r.out, "Usage: :show <RelationName>")
			break
		}
		rel, ok := r.env[args[0]]
		if !ok {
			fmt.Fprintf(r.out, "Unknown relation: %s\n", args[0])
			break
		}
		r.print(rel)
	case "reload":
		env, err := r.load()
		if err != nil {
			fmt.Fprintf(r.out, "Reload failed: %v\n", err)
			break
		}
		r.env = env
		fmt.Fprintf(r.out, "Reloaded %d relations from %s.\n", len(env), r.path)
	default:
		fmt.Fprintf(r.out, "Unknown command: :%s. Type :help\n", name)
	}
	return false
}

func (r *repl) load() (relation.Environment, error) {
	src, err := loader.LoadFile(commandContext(r.cmd), r.path)
	if err != nil {
		return nil, err
	}
	return src.Relations, nil
}

func (r *repl) print(rel *relation.Relation) {
	if err := printer.Write(r.out, printer.Format(r.opts.Format), rel); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}
