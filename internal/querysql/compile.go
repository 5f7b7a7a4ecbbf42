package querysql

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/qimcis/raq/internal/algebra"
	"github.com/qimcis/raq/internal/predicate"
	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/store"
	"github.com/qimcis/raq/internal/value"
)

// Query is a compiled expression: one SQLite statement, its positional
// parameters and the header of the relation it produces.
type Query struct {
	// Name is the diagnostic name the evaluator gives the same result.
	Name   string
	SQL    string
	Params []any
	Header []string
}

// Run executes q against s and returns the result as a relation.
func (q *Query) Run(ctx context.Context, s *store.Store) (*relation.Relation, error) {
	return s.QueryRelation(ctx, q.Name, q.SQL, q.Params...)
}

// Compiler compiles relational-algebra expressions to parameterized SQL for
// SQLite.
//
// CRITICAL: Every SELECT is DISTINCT, so each level has set semantics.
// CRITICAL: Constants are parameters, never interpolated.
// CRITICAL: The outermost query orders by every column for deterministic output.
type Compiler struct {
	// catalog maps relation names to their headers.
	catalog map[string][]string
}

// NewCompiler creates a Compiler resolving relation references against
// catalog (relation name to header).
func NewCompiler(catalog map[string][]string) *Compiler {
	return &Compiler{catalog: catalog}
}

// CatalogOf returns the catalog describing env.
func CatalogOf(env relation.Environment) map[string][]string {
	catalog := make(map[string][]string, len(env))
	for name, rel := range env {
		catalog[name] = slices.Clone(rel.Header)
	}
	return catalog
}

// fragment is a compiled subexpression: a SELECT whose columns are aliased
// to header, in header order.
type fragment struct {
	sql    string
	params []any
	header []string
}

// Compile converts e to a single SQL statement.
//
// Name resolution follows the evaluator, so unknown relations, projection
// attributes and predicate attributes fail here with the same error kinds.
// Predicate attributes are checked even when the evaluator would never
// look them up (an empty operand, a short-circuited branch).
func (c *Compiler) Compile(e algebra.Expr) (*Query, error) {
	if e == nil {
		return nil, fmt.Errorf("cannot compile nil expression")
	}

	f, err := c.compile(e)
	if err != nil {
		return nil, err
	}

	order := make([]string, len(f.header))
	for i, a := range f.header {
		order[i] = store.QuoteIdent(a) + " ASC"
	}
	sql := fmt.Sprintf("SELECT * FROM (%s) AS q ORDER BY %s", f.sql, strings.Join(order, ", "))

	return &Query{
		Name:   algebra.DisplayName(e),
		SQL:    sql,
		Params: f.params,
		Header: f.header,
	}, nil
}

func (c *Compiler) compile(e algebra.Expr) (*fragment, error) {
	switch expr := e.(type) {
	case algebra.Ref:
		return c.compileRef(expr)
	case algebra.Select:
		return c.compileSelect(expr)
	case algebra.Project:
		return c.compileProject(expr)
	case algebra.Join:
		return c.compileJoin(expr)
	case algebra.SetOp:
		return c.compileSetOp(expr)
	default:
		return nil, qerr.New(qerr.KindUnsupported, "cannot translate expression of type %T", e)
	}
}

func (c *Compiler) compileRef(expr algebra.Ref) (*fragment, error) {
	header, ok := c.catalog[expr.Name]
	if !ok {
		return nil, qerr.New(qerr.KindUnknownRelation, "Unknown relation: %s", expr.Name)
	}
	return &fragment{
		sql:    fmt.Sprintf("SELECT DISTINCT %s FROM %s", columnList("", header, header), store.QuoteIdent(expr.Name)),
		header: slices.Clone(header),
	}, nil
}

func (c *Compiler) compileSelect(expr algebra.Select) (*fragment, error) {
	child, err := c.compile(expr.Child)
	if err != nil {
		return nil, err
	}

	scope := make(map[string]string, len(child.header))
	for _, a := range child.header {
		scope[a] = column("t", a)
	}
	pc := &predicateCompiler{scope: scope}
	cond, err := pc.condition(expr.Predicate)
	if err != nil {
		return nil, err
	}

	return &fragment{
		sql: fmt.Sprintf("SELECT DISTINCT %s FROM (%s) AS t WHERE %s",
			columnList("t", child.header, child.header), child.sql, cond),
		params: append(child.params, pc.params...),
		header: child.header,
	}, nil
}

func (c *Compiler) compileProject(expr algebra.Project) (*fragment, error) {
	child, err := c.compile(expr.Child)
	if err != nil {
		return nil, err
	}

	var header []string
	for _, a := range expr.Attrs {
		if !slices.Contains(child.header, a) {
			return nil, qerr.New(qerr.KindUnknownAttribute,
				"Projection attribute '%s' not in schema %v", a, child.header)
		}
		if !slices.Contains(header, a) {
			header = append(header, a)
		}
	}
	if len(header) == 0 {
		return nil, qerr.New(qerr.KindUnsupported, "projection with no attributes")
	}

	return &fragment{
		sql:    fmt.Sprintf("SELECT DISTINCT %s FROM (%s) AS t", columnList("t", header, header), child.sql),
		params: child.params,
		header: header,
	}, nil
}

func (c *Compiler) compileJoin(expr algebra.Join) (*fragment, error) {
	left, err := c.compile(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compile(expr.Right)
	if err != nil {
		return nil, err
	}

	params := append(slices.Clone(left.params), right.params...)
	if expr.Predicate == nil {
		return naturalJoin(left, right, params), nil
	}
	return thetaJoin(left, right, params, expr)
}

// naturalJoin equates shared attributes with IS, which treats two NULLs as
// equal like value.Equal does.
func naturalJoin(left, right *fragment, params []any) *fragment {
	header := slices.Clone(left.header)
	cols := make([]string, 0, len(left.header)+len(right.header))
	for _, a := range left.header {
		cols = append(cols, column("l", a)+" AS "+store.QuoteIdent(a))
	}

	var conds []string
	for _, a := range right.header {
		if slices.Contains(left.header, a) {
			conds = append(conds, column("l", a)+" IS "+column("r", a))
			continue
		}
		header = append(header, a)
		cols = append(cols, column("r", a)+" AS "+store.QuoteIdent(a))
	}

	sql := fmt.Sprintf("SELECT DISTINCT %s FROM (%s) AS l CROSS JOIN (%s) AS r",
		strings.Join(cols, ", "), left.sql, right.sql)
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	return &fragment{sql: sql, params: params, header: header}
}

// thetaJoin renames colliding right attributes with "_right" suffixes and
// binds the same predicate names as the evaluator: bare, "left."/"right."
// and operand-name qualified.
func thetaJoin(left, right *fragment, params []any, expr algebra.Join) (*fragment, error) {
	header := slices.Clone(left.header)
	cols := make([]string, 0, len(left.header)+len(right.header))
	for _, a := range left.header {
		cols = append(cols, column("l", a)+" AS "+store.QuoteIdent(a))
	}
	for _, a := range right.header {
		name := a
		for slices.Contains(header, name) {
			name += "_right"
		}
		header = append(header, name)
		cols = append(cols, column("r", a)+" AS "+store.QuoteIdent(name))
	}

	leftName := algebra.DisplayName(expr.Left)
	rightName := algebra.DisplayName(expr.Right)
	scope := make(map[string]string, 3*len(header))
	for _, a := range left.header {
		col := column("l", a)
		scope[a] = col
		scope["left."+a] = col
		scope[leftName+"."+a] = col
	}
	for _, a := range right.header {
		col := column("r", a)
		if _, bound := scope[a]; !bound {
			scope[a] = col
		}
		scope["right."+a] = col
		scope[rightName+"."+a] = col
	}

	pc := &predicateCompiler{scope: scope}
	cond, err := pc.condition(expr.Predicate)
	if err != nil {
		return nil, err
	}

	return &fragment{
		sql: fmt.Sprintf("SELECT DISTINCT %s FROM (%s) AS l CROSS JOIN (%s) AS r WHERE %s",
			strings.Join(cols, ", "), left.sql, right.sql, cond),
		params: append(params, pc.params...),
		header: header,
	}, nil
}

var setOpKeywords = map[algebra.SetKind]string{
	algebra.Union:     "UNION",
	algebra.Intersect: "INTERSECT",
	algebra.Minus:     "EXCEPT",
}

// compileSetOp emits a compound SELECT. UNION, INTERSECT and EXCEPT already
// discard duplicates. The right operand's columns are listed in the left
// header's order.
func (c *Compiler) compileSetOp(expr algebra.SetOp) (*fragment, error) {
	keyword, ok := setOpKeywords[expr.Kind]
	if !ok {
		return nil, qerr.New(qerr.KindUnsupported, "unknown set operation %q", expr.Kind)
	}

	left, err := c.compile(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compile(expr.Right)
	if err != nil {
		return nil, err
	}

	if !sameSchema(left.header, right.header) {
		return nil, qerr.New(qerr.KindSchemaMismatch,
			"Set operation requires union-compatible schemas, got %v vs %v", left.header, right.header)
	}

	cols := columnList("", left.header, left.header)
	sql := fmt.Sprintf("SELECT %s FROM (%s) %s SELECT %s FROM (%s)",
		cols, left.sql, keyword, cols, right.sql)
	return &fragment{
		sql:    sql,
		params: append(slices.Clone(left.params), right.params...),
		header: slices.Clone(left.header),
	}, nil
}

func sameSchema(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	return true
}

// column renders a possibly qualified column reference.
func column(table, attr string) string {
	if table == "" {
		return store.QuoteIdent(attr)
	}
	return table + "." + store.QuoteIdent(attr)
}

// columnList renders "src AS alias" pairs for the given attributes.
func columnList(table string, attrs, aliases []string) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = column(table, a) + " AS " + store.QuoteIdent(aliases[i])
	}
	return strings.Join(parts, ", ")
}

// predicateCompiler translates one predicate. scope maps every name the
// evaluator would bind to the SQL column holding its value.
type predicateCompiler struct {
	scope  map[string]string
	params []any
}

// lookup resolves name the way predicate.Lookup does.
func (pc *predicateCompiler) lookup(name string) (string, error) {
	for _, key := range []string{name, "left." + name, "right." + name} {
		if col, ok := pc.scope[key]; ok {
			return col, nil
		}
	}
	return "", qerr.New(qerr.KindAttributeNotFound, "Attribute '%s' not found in context", name)
}

// condition renders n as an SQL expression that is 1 when n holds and 0
// when it does not.
func (pc *predicateCompiler) condition(n predicate.Node) (string, error) {
	switch node := n.(type) {
	case predicate.Const:
		if value.Truthy(node.Value) {
			return "1", nil
		}
		return "0", nil

	case predicate.Attr:
		col, err := pc.lookup(node.Name)
		if err != nil {
			return "", err
		}
		return truthy(col), nil

	case predicate.Unary:
		if node.Op != predicate.OpNot {
			return "", qerr.New(qerr.KindUnsupported, "unknown unary operator %q", node.Op)
		}
		inner, err := pc.condition(node.Expr)
		if err != nil {
			return "", err
		}
		return "(NOT " + inner + ")", nil

	case predicate.Binary:
		return pc.binary(node)

	case nil:
		return "", qerr.New(qerr.KindUnsupported, "missing predicate")

	default:
		return "", qerr.New(qerr.KindUnsupported, "cannot translate predicate node %T", n)
	}
}

var comparisonSQL = map[string]string{
	predicate.OpEq: "IS",
	predicate.OpNe: "IS NOT",
	predicate.OpLt: "<",
	predicate.OpLe: "<=",
	predicate.OpGt: ">",
	predicate.OpGe: ">=",
}

func (pc *predicateCompiler) binary(node predicate.Binary) (string, error) {
	if node.Op == predicate.OpAnd || node.Op == predicate.OpOr {
		l, err := pc.condition(node.Left)
		if err != nil {
			return "", err
		}
		r, err := pc.condition(node.Right)
		if err != nil {
			return "", err
		}
		return "(" + l + " " + strings.ToUpper(node.Op) + " " + r + ")", nil
	}

	op, ok := comparisonSQL[node.Op]
	if !ok {
		return "", qerr.New(qerr.KindUnsupported, "unknown binary operator %q", node.Op)
	}
	l, err := pc.operand(node.Left)
	if err != nil {
		return "", err
	}
	r, err := pc.operand(node.Right)
	if err != nil {
		return "", err
	}
	return "(" + l + " " + op + " " + r + ")", nil
}

// operand renders n as a value: a parameter for a constant, a column for an
// attribute, and the 0/1 condition for anything else.
func (pc *predicateCompiler) operand(n predicate.Node) (string, error) {
	switch node := n.(type) {
	case predicate.Const:
		if _, isNull := node.Value.(value.Null); isNull {
			return "NULL", nil
		}
		pc.params = append(pc.params, value.ToAny(node.Value))
		return "?", nil
	case predicate.Attr:
		return pc.lookup(node.Name)
	default:
		return pc.condition(n)
	}
}

// truthy mirrors value.Truthy for a column: NULL, 0 and the empty string are
// false.
func truthy(col string) string {
	return fmt.Sprintf(
		"(CASE WHEN %[1]s IS NULL THEN 0 WHEN typeof(%[1]s) IN ('text', 'blob') THEN length(%[1]s) > 0 ELSE %[1]s <> 0 END)",
		col)
}
