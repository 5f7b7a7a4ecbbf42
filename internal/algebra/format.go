package algebra

import (
	"fmt"
	"strings"

	"github.com/qimcis/raq/internal/predicate"
)

// DisplayName returns the diagnostic name the evaluator gives the relation
// produced by e: the relation's own name for a Ref, otherwise the operator
// applied to its operands' names, e.g. "Join(Select(Employees),Departments)".
//
// Theta joins bind "<DisplayName>.<attr>" for each operand, so a predicate
// can qualify attributes of a directly referenced relation by its name.
func DisplayName(e Expr) string {
	switch expr := e.(type) {
	case Ref:
		return expr.Name
	case Select:
		return "Select(" + DisplayName(expr.Child) + ")"
	case Project:
		return "Project(" + DisplayName(expr.Child) + ")"
	case Join:
		return "Join(" + DisplayName(expr.Left) + "," + DisplayName(expr.Right) + ")"
	case SetOp:
		return setOpTitle(expr.Kind) + "(" + DisplayName(expr.Left) + "," + DisplayName(expr.Right) + ")"
	default:
		return fmt.Sprintf("%T", e)
	}
}

func setOpTitle(kind SetKind) string {
	switch kind {
	case Union:
		return "Union"
	case Intersect:
		return "Intersect"
	case Minus:
		return "Minus"
	default:
		return string(kind)
	}
}

// setOpGlyph maps each set operation to its symbolic operator.
var setOpGlyph = map[SetKind]string{
	Union:     "∪",
	Intersect: "∩",
	Minus:     "−",
}

// String renders e in symbolic syntax. The result parses back to an equal
// tree: joins and set operations fold left, so a right operand of the same
// or a looser level is parenthesized.
func String(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

// Operator levels, loosest first, matching the parser's layers.
const (
	levelSet = iota
	levelJoin
	levelUnary
)

func level(e Expr) int {
	switch e.(type) {
	case SetOp:
		return levelSet
	case Join:
		return levelJoin
	default:
		return levelUnary
	}
}

// writeOperand writes e, parenthesized when it binds looser than lvl.
func writeOperand(b *strings.Builder, e Expr, lvl int) {
	if level(e) < lvl {
		b.WriteByte('(')
		writeExpr(b, e)
		b.WriteByte(')')
		return
	}
	writeExpr(b, e)
}

func writeExpr(b *strings.Builder, e Expr) {
	switch expr := e.(type) {
	case Ref:
		b.WriteString(expr.Name)

	case Select:
		b.WriteString("σ ")
		b.WriteString(predicate.String(expr.Predicate))
		b.WriteString(" (")
		writeExpr(b, expr.Child)
		b.WriteByte(')')

	case Project:
		b.WriteString("π ")
		b.WriteString(strings.Join(expr.Attrs, ", "))
		b.WriteString(" (")
		writeExpr(b, expr.Child)
		b.WriteByte(')')

	case Join:
		writeOperand(b, expr.Left, levelJoin)
		b.WriteString(" ⋈")
		if expr.Predicate != nil {
			b.WriteByte('[')
			b.WriteString(predicate.String(expr.Predicate))
			b.WriteByte(']')
		}
		b.WriteByte(' ')
		writeOperand(b, expr.Right, levelUnary)

	case SetOp:
		writeOperand(b, expr.Left, levelSet)
		b.WriteByte(' ')
		b.WriteString(setOpGlyph[expr.Kind])
		b.WriteByte(' ')
		writeOperand(b, expr.Right, levelJoin)

	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

// Relations returns the names of the relations e references, in first-seen
// order without duplicates.
func Relations(e Expr) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch expr := e.(type) {
		case Ref:
			if !seen[expr.Name] {
				seen[expr.Name] = true
				names = append(names, expr.Name)
			}
		case Select:
			walk(expr.Child)
		case Project:
			walk(expr.Child)
		case Join:
			walk(expr.Left)
			walk(expr.Right)
		case SetOp:
			walk(expr.Left)
			walk(expr.Right)
		}
	}
	walk(e)
	return names
}
