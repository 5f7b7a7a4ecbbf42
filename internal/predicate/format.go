package predicate

import (
	"math"
	"strconv"
	"strings"

	"github.com/qimcis/raq/internal/value"
)

// String renders n in a canonical form that parses back to an equal tree.
// Parentheses appear only where precedence or left-associativity needs them,
// and never directly after an operand, so the rendering is also safe inside
// a σ condition.
func String(n Node) string {
	var b strings.Builder
	write(&b, n, 0)
	return b.String()
}

func write(b *strings.Builder, n Node, minPrec int) {
	switch node := n.(type) {
	case Const:
		b.WriteString(literal(node.Value))
	case Attr:
		b.WriteString(node.Name)
	case Unary:
		b.WriteString(node.Op)
		b.WriteByte(' ')
		write(b, node.Expr, 4)
	case Binary:
		prec := precedence(node.Op)
		wrap := prec < minPrec
		if wrap {
			b.WriteByte('(')
		}
		write(b, node.Left, prec)
		b.WriteByte(' ')
		b.WriteString(node.Op)
		b.WriteByte(' ')
		write(b, node.Right, prec+1)
		if wrap {
			b.WriteByte(')')
		}
	}
}

// literal renders a constant in the lexer's own syntax: strings escape only
// quotes and backslashes, floats always carry a decimal point.
func literal(v value.Value) string {
	switch x := v.(type) {
	case value.String:
		var b strings.Builder
		b.WriteByte('"')
		for _, r := range string(x) {
			if r == '"' || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('"')
		return b.String()
	case value.Float:
		f := float64(x)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return value.Literal(v)
		}
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	default:
		return value.Literal(v)
	}
}
