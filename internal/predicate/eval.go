package predicate

import (
	"fmt"

	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/value"
)

// Context binds attribute names, possibly qualified, to values while a
// predicate is evaluated against one row or one joined row pair.
type Context map[string]value.Value

// Lookup resolves name in ctx: the bare name first, then "left.<name>",
// then "right.<name>".
func Lookup(ctx Context, name string) (value.Value, error) {
	if v, ok := ctx[name]; ok {
		return v, nil
	}
	if v, ok := ctx["left."+name]; ok {
		return v, nil
	}
	if v, ok := ctx["right."+name]; ok {
		return v, nil
	}
	return nil, qerr.New(qerr.KindAttributeNotFound, "Attribute '%s' not found in context", name)
}

// Eval evaluates n as a condition. Constants and attributes count by their
// truthiness; and/or short-circuit.
func Eval(n Node, ctx Context) (bool, error) {
	switch node := n.(type) {
	case Const:
		return value.Truthy(node.Value), nil

	case Attr:
		v, err := Lookup(ctx, node.Name)
		if err != nil {
			return false, err
		}
		return value.Truthy(v), nil

	case Unary:
		if node.Op != OpNot {
			return false, fmt.Errorf("unknown unary operator %q", node.Op)
		}
		b, err := Eval(node.Expr, ctx)
		if err != nil {
			return false, err
		}
		return !b, nil

	case Binary:
		return evalBinary(node, ctx)

	default:
		return false, fmt.Errorf("unsupported predicate node %T", n)
	}
}

func evalBinary(node Binary, ctx Context) (bool, error) {
	switch node.Op {
	case OpAnd, OpOr:
		l, err := Eval(node.Left, ctx)
		if err != nil {
			return false, err
		}
		if node.Op == OpAnd && !l {
			return false, nil
		}
		if node.Op == OpOr && l {
			return true, nil
		}
		return Eval(node.Right, ctx)
	}

	lv, err := EvalValue(node.Left, ctx)
	if err != nil {
		return false, err
	}
	rv, err := EvalValue(node.Right, ctx)
	if err != nil {
		return false, err
	}

	switch node.Op {
	case OpEq:
		return value.Equal(lv, rv), nil
	case OpNe:
		return !value.Equal(lv, rv), nil
	}

	if !IsComparison(node.Op) {
		return false, fmt.Errorf("unknown binary operator %q", node.Op)
	}
	order, err := value.Compare(lv, rv)
	if err != nil {
		return false, err
	}
	return order.Holds(node.Op), nil
}

// EvalValue evaluates n as an operand: constants yield their literal,
// attributes their bound value, and anything else the Bool of Eval.
func EvalValue(n Node, ctx Context) (value.Value, error) {
	switch node := n.(type) {
	case Const:
		return node.Value, nil
	case Attr:
		return Lookup(ctx, node.Name)
	default:
		b, err := Eval(n, ctx)
		if err != nil {
			return nil, err
		}
		return value.Bool(b), nil
	}
}
