package algebra

import (
	"fmt"

	"github.com/qimcis/raq/internal/predicate"
	"github.com/qimcis/raq/internal/value"
)

// ValidationResult contains the portability analysis of an expression.
//
// The in-memory evaluator is the reference semantics. The SQL backend
// translates every expression, but a few constructs can produce different
// answers in SQLite. Validate reports those it can detect statically.
type ValidationResult struct {
	// IsPortable indicates the expression has no statically detectable
	// divergence between the evaluator and the SQL backend.
	IsPortable bool

	// Warnings lists the divergent constructs. Empty when IsPortable is true.
	Warnings []string
}

// Validate checks e for constructs whose SQL translation may disagree with
// in-memory evaluation:
//  1. Ordering a null literal: the evaluator fails, SQL yields no rows.
//  2. Boolean literals in comparisons: SQLite stores booleans as 0/1, so
//     true == 1 holds in SQL but not in the evaluator.
//  3. Ordering constants of different kinds: SQLite orders across storage
//     classes, the evaluator fails.
//
// Validate is a pure function with no side effects.
func Validate(e Expr) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateExpr(e)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateExpr(e Expr) {
	switch expr := e.(type) {
	case nil:
		v.addWarning("nil expression")
	case Ref:
		if expr.Name == "" {
			v.addWarning("relation reference with empty name")
		}
	case Select:
		v.validateCondition(expr.Predicate, "selection")
		v.validateExpr(expr.Child)
	case Project:
		if len(expr.Attrs) == 0 {
			v.addWarning("projection with no attributes")
		}
		v.validateExpr(expr.Child)
	case Join:
		if expr.Predicate != nil {
			v.validateCondition(expr.Predicate, "join")
		}
		v.validateExpr(expr.Left)
		v.validateExpr(expr.Right)
	case SetOp:
		if _, ok := setOpGlyph[expr.Kind]; !ok {
			v.addWarning("unknown set operation %q", expr.Kind)
		}
		v.validateExpr(expr.Left)
		v.validateExpr(expr.Right)
	default:
		v.addWarning("unknown expression type %T", e)
	}
}

// validateCondition checks a predicate used where a boolean is expected.
func (v *validator) validateCondition(n predicate.Node, site string) {
	switch node := n.(type) {
	case nil:
		v.addWarning("%s without a predicate", site)
	case predicate.Unary:
		v.validateCondition(node.Expr, site)
	case predicate.Binary:
		if node.Op == predicate.OpAnd || node.Op == predicate.OpOr {
			v.validateCondition(node.Left, site)
			v.validateCondition(node.Right, site)
			return
		}
		v.validateComparison(node, site)
	}
}

func (v *validator) validateComparison(node predicate.Binary, site string) {
	text := predicate.String(node)
	lc, lconst := node.Left.(predicate.Const)
	rc, rconst := node.Right.(predicate.Const)

	ordering := node.Op != predicate.OpEq && node.Op != predicate.OpNe
	for _, c := range []struct {
		c  predicate.Const
		ok bool
	}{{lc, lconst}, {rc, rconst}} {
		if !c.ok {
			continue
		}
		switch c.c.Value.(type) {
		case value.Null:
			if ordering {
				v.addWarning("%s comparison %s orders null, which fails in memory but is empty in SQL", site, text)
			}
		case value.Bool:
			v.addWarning("%s comparison %s uses a boolean literal, stored as an integer in SQL", site, text)
		}
	}

	if ordering && lconst && rconst {
		if _, err := value.Compare(lc.Value, rc.Value); err != nil {
			v.addWarning("%s comparison %s orders values of different kinds", site, text)
		}
	}

	// Operands that are themselves conditions are evaluated as booleans.
	for _, side := range []predicate.Node{node.Left, node.Right} {
		switch side.(type) {
		case predicate.Unary, predicate.Binary:
			v.validateCondition(side, site)
		}
	}
}
