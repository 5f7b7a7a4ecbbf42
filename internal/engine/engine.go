package engine

import (
	"log/slog"

	"github.com/qimcis/raq/internal/algebra"
	"github.com/qimcis/raq/internal/parser"
	"github.com/qimcis/raq/internal/relation"
)

// Engine evaluates relational-algebra expressions against an environment.
//
// Thread-safety model:
//   - Evaluate() and Query() only read the environment and may run
//     concurrently with each other.
//   - SetEnvironment() must not overlap with any evaluation (single writer,
//     no overlap). The REPL's reload is the only caller.
type Engine struct {
	env    relation.Environment
	logger *slog.Logger
	idGen  QueryIDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-operator debug output.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithQueryIDGenerator sets the generator for IDs assigned by Query.
// Default: UUIDv7Generator.
func WithQueryIDGenerator(gen QueryIDGenerator) Option {
	return func(e *Engine) {
		e.idGen = gen
	}
}

// New creates an Engine over env.
func New(env relation.Environment, opts ...Option) *Engine {
	e := &Engine{
		env:    env,
		logger: slog.Default(),
		idGen:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Environment returns the environment queries are evaluated against.
func (e *Engine) Environment() relation.Environment {
	return e.env
}

// SetEnvironment replaces the environment, e.g. after a reload.
func (e *Engine) SetEnvironment(env relation.Environment) {
	e.env = env
}

// Evaluate evaluates expr. The result is a fresh relation; the environment
// is never modified.
func (e *Engine) Evaluate(expr algebra.Expr) (*relation.Relation, error) {
	ev := &evaluator{env: e.env, logger: e.logger}
	return ev.eval(expr)
}

// Result is the outcome of one query run through Query.
type Result struct {
	ID       string
	Text     string
	Expr     algebra.Expr
	Relation *relation.Relation
}

// Query parses and evaluates text under a fresh query ID. The ID is attached
// to every log line of the query and returned in the Result; on failure the
// returned Result still carries the ID and whatever was parsed.
func (e *Engine) Query(text string) (*Result, error) {
	res := &Result{ID: e.idGen.Generate(), Text: text}
	logger := e.logger.With("query_id", res.ID)

	expr, err := parser.Parse(text)
	if err != nil {
		logger.Debug("query rejected", "query", text, "error", err)
		return res, err
	}
	res.Expr = expr

	ev := &evaluator{env: e.env, logger: logger}
	rel, err := ev.eval(expr)
	if err != nil {
		logger.Debug("query failed", "query", text, "error", err)
		return res, err
	}
	res.Relation = rel

	logger.Debug("query evaluated", "query", text, "rows", rel.Len())
	return res, nil
}

// Evaluate evaluates expr against env with the default logger.
func Evaluate(expr algebra.Expr, env relation.Environment) (*relation.Relation, error) {
	return New(env).Evaluate(expr)
}
