// Package predicate implements the boolean condition language used by
// selections and theta joins: its AST, a precedence-climbing parser over
// lexer tokens, and an evaluator over name-to-value contexts.
package predicate

import "github.com/qimcis/raq/internal/value"

// Node is a predicate expression.
//
// This is a sealed interface - only Const, Attr, Unary and Binary implement
// it, so type switches in the evaluator and the SQL compiler are exhaustive.
type Node interface {
	predicateNode() // Marker method - seals interface to this package
}

// Operators. Parsing normalizes "=" to OpEq, "&&" to OpAnd and "||" to OpOr.
const (
	OpNot = "not"
	OpAnd = "and"
	OpOr  = "or"
	OpEq  = "=="
	OpNe  = "!="
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
)

// Const is a literal: a number, string, true, false or null.
type Const struct {
	Value value.Value
}

func (Const) predicateNode() {}

// Attr references an attribute by name. The name may carry one dotted
// qualifier, e.g. "left.Age" or "Departments.DeptId".
type Attr struct {
	Name string
}

func (Attr) predicateNode() {}

// Unary is a prefix operator. The only unary operator is OpNot.
type Unary struct {
	Op   string
	Expr Node
}

func (Unary) predicateNode() {}

// Binary is a logical (OpAnd, OpOr) or comparison operator.
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

func (Binary) predicateNode() {}

// precedence returns the binding level of a binary operator, or 0 if op is
// not one.
func precedence(op string) int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return 3
	default:
		return 0
	}
}

// IsComparison reports whether op is one of the six comparison operators.
func IsComparison(op string) bool {
	return precedence(op) == 3
}

// Attrs returns the attribute names referenced by n in first-seen order,
// without duplicates.
func Attrs(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch node := n.(type) {
		case Attr:
			if !seen[node.Name] {
				seen[node.Name] = true
				names = append(names, node.Name)
			}
		case Unary:
			walk(node.Expr)
		case Binary:
			walk(node.Left)
			walk(node.Right)
		}
	}
	walk(n)
	return names
}
