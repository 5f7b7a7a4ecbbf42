package predicate

import (
	"strconv"
	"strings"

	"github.com/qimcis/raq/internal/lexer"
	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/value"
)

// Parse parses a complete predicate from tokens. Every token must be
// consumed; leftovers are a PARSE_ERROR.
func Parse(tokens []lexer.Token) (Node, error) {
	p := &parser{toks: tokens}
	node, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, qerr.New(qerr.KindParse, "Unexpected tokens after predicate: %s", tok)
	}
	return node, nil
}

// ParseString tokenizes text and parses it as a predicate.
func ParseString(text string) (Node, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) peek() (lexer.Token, bool) {
	if p.pos >= len(p.toks) {
		return lexer.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) pop() (lexer.Token, error) {
	tok, ok := p.peek()
	if !ok {
		return lexer.Token{}, qerr.New(qerr.KindParse, "Unexpected end of predicate")
	}
	p.pos++
	return tok, nil
}

// binaryOp returns the normalized operator for tok, or "" if tok does not
// continue a binary expression.
func binaryOp(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.Op:
		switch tok.Text {
		case "=", "==":
			return OpEq
		case "&&":
			return OpAnd
		case "||":
			return OpOr
		default:
			return tok.Text
		}
	case lexer.Keyword:
		if tok.Text == OpAnd || tok.Text == OpOr {
			return tok.Text
		}
	}
	return ""
}

// parseExpr folds binary operators whose precedence is at least minPrec.
// The right operand binds one level tighter, so equal-precedence chains
// associate to the left.
func (p *parser) parseExpr(minPrec int) (Node, error) {
	node, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		op := binaryOp(tok)
		prec := precedence(op)
		if prec == 0 || prec < minPrec {
			break
		}
		p.pos++
		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		node = Binary{Op: op, Left: node, Right: rhs}
	}
	return node, nil
}

func (p *parser) parseUnary() (Node, error) {
	if tok, ok := p.peek(); ok && tok.IsKeyword(OpNot) {
		p.pos++
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpNot, Expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok, err := p.pop()
	if err != nil {
		return nil, err
	}

	switch tok.Kind {
	case lexer.LParen:
		node, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if next, ok := p.peek(); !ok || next.Kind != lexer.RParen {
			return nil, qerr.New(qerr.KindParse, "Unbalanced parentheses in predicate")
		}
		p.pos++
		return node, nil

	case lexer.Number:
		v, err := numberLiteral(tok.Text)
		if err != nil {
			return nil, err
		}
		return Const{Value: v}, nil

	case lexer.String:
		return Const{Value: value.String(tok.Text)}, nil

	case lexer.Keyword:
		switch tok.Text {
		case "true":
			return Const{Value: value.Bool(true)}, nil
		case "false":
			return Const{Value: value.Bool(false)}, nil
		case "null":
			return Const{Value: value.Null{}}, nil
		}

	case lexer.Ident:
		name := tok.Text
		if next, ok := p.peek(); ok && next.Kind == lexer.Dot {
			p.pos++
			qual, err := p.pop()
			if err != nil {
				return nil, err
			}
			if qual.Kind != lexer.Ident {
				return nil, qerr.New(qerr.KindParse, "Expected identifier after dot")
			}
			name = name + "." + qual.Text
		}
		return Attr{Name: name}, nil
	}

	return nil, qerr.New(qerr.KindParse, "Invalid token in predicate: %s", tok)
}

// numberLiteral converts a NUMBER token: a dot makes it a float.
func numberLiteral(text string) (value.Value, error) {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, qerr.New(qerr.KindParse, "Invalid number literal: %s", text)
		}
		return value.Float(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, qerr.New(qerr.KindParse, "Invalid number literal: %s", text)
	}
	return value.Int(n), nil
}
