// Package parser turns query text into an algebra.Expr.
//
// The grammar has three layers, loosest first: set operations, joins and
// unary terms. Each layer parses a term of the next one and folds its own
// operators left to right. Symbolic (σ π ⋈ ∪ ∩ −) and functional
// (select project join union intersect minus) syntax can be mixed freely.
//
// Conditions of σ/select and attribute lists of π/project are sliced out of
// the token stream and handed to the predicate parser. Where such a slice
// ends is decided by the token preceding each depth-0 '(' (see
// collectUntilChildParen).
package parser

import (
	"github.com/qimcis/raq/internal/algebra"
	"github.com/qimcis/raq/internal/lexer"
	"github.com/qimcis/raq/internal/predicate"
	"github.com/qimcis/raq/internal/qerr"
)

// Parse tokenizes and parses one relational expression. Trailing input is a
// PARSE_ERROR.
func Parse(text string) (algebra.Expr, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// ParseTokens parses one relational expression from tokens.
func ParseTokens(tokens []lexer.Token) (algebra.Expr, error) {
	p := NewParser(tokens)
	expr, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if p.Remaining() > 0 {
		return nil, qerr.New(qerr.KindParse, "Unexpected input after end of expression: %s", p.toks[p.pos])
	}
	return expr, nil
}

// Parser is a recursive-descent parser over a token slice.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// NewParser creates a parser over tokens.
func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{toks: tokens}
}

// Remaining reports how many tokens are left unconsumed.
func (p *Parser) Remaining() int {
	return len(p.toks) - p.pos
}

func (p *Parser) peek() (lexer.Token, bool) {
	if p.pos >= len(p.toks) {
		return lexer.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *Parser) pop() (lexer.Token, error) {
	tok, ok := p.peek()
	if !ok {
		return lexer.Token{}, qerr.New(qerr.KindParse, "Unexpected end of input")
	}
	p.pos++
	return tok, nil
}

// match consumes the next token if it has the given kind.
func (p *Parser) match(kind lexer.Kind) bool {
	if tok, ok := p.peek(); ok && tok.Kind == kind {
		p.pos++
		return true
	}
	return false
}

// expect consumes the next token and fails unless it has the given kind.
func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok, err := p.pop()
	if err != nil {
		return lexer.Token{}, err
	}
	if tok.Kind != kind {
		return lexer.Token{}, qerr.New(qerr.KindParse, "Expected %s but got %s", kind, tok)
	}
	return tok, nil
}

// ParseExpr parses one relational expression starting at the current token,
// leaving any following tokens unconsumed.
func (p *Parser) ParseExpr() (algebra.Expr, error) {
	return p.parseSetLevel()
}

// setKind returns the set operation tok introduces, if any.
func setKind(tok lexer.Token) (algebra.SetKind, bool) {
	switch {
	case tok.Kind == lexer.UnionSym || tok.IsKeyword("union"):
		return algebra.Union, true
	case tok.Kind == lexer.IntersectSym || tok.IsKeyword("intersect"):
		return algebra.Intersect, true
	case tok.Kind == lexer.DiffSym || tok.IsKeyword("minus"):
		return algebra.Minus, true
	default:
		return "", false
	}
}

func (p *Parser) parseSetLevel() (algebra.Expr, error) {
	left, err := p.parseJoinLevel()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		kind, isSet := setKind(tok)
		if !isSet {
			break
		}
		p.pos++
		right, err := p.parseJoinLevel()
		if err != nil {
			return nil, err
		}
		left = algebra.SetOp{Kind: kind, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseJoinLevel() (algebra.Expr, error) {
	left, err := p.parseUnaryLevel()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.JoinSym) {
		var pred predicate.Node
		if p.match(lexer.LBrack) {
			if pred, err = p.bracketPredicate(); err != nil {
				return nil, err
			}
		}
		right, err := p.parseUnaryLevel()
		if err != nil {
			return nil, err
		}
		left = algebra.Join{Left: left, Right: right, Predicate: pred}
	}
	return left, nil
}

func (p *Parser) parseUnaryLevel() (algebra.Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, qerr.New(qerr.KindParse, "Unexpected end of input in expression")
	}

	switch {
	case tok.IsKeyword("union", "intersect", "minus"):
		p.pos++
		return p.parseFunctionalSetOp(algebra.SetKind(tok.Text))

	case tok.IsKeyword("join"):
		p.pos++
		return p.parseFunctionalJoin()

	case tok.Kind == lexer.Sigma || tok.IsKeyword("select"):
		p.pos++
		pred, err := predicate.Parse(p.collectUntilChildParen())
		if err != nil {
			return nil, err
		}
		child, err := p.parseChild()
		if err != nil {
			return nil, err
		}
		return algebra.Select{Predicate: pred, Child: child}, nil

	case tok.Kind == lexer.Pi || tok.IsKeyword("project"):
		p.pos++
		attrs, err := parseAttrList(p.collectUntilChildParen())
		if err != nil {
			return nil, err
		}
		child, err := p.parseChild()
		if err != nil {
			return nil, err
		}
		return algebra.Project{Attrs: attrs, Child: child}, nil

	case tok.Kind == lexer.LParen:
		p.pos++
		return p.parseChildBody()

	case tok.Kind == lexer.Ident:
		p.pos++
		return algebra.Ref{Name: tok.Text}, nil
	}

	return nil, qerr.New(qerr.KindParse, "Unexpected token in expression: %s", tok)
}

// parseChild parses "( expr )".
func (p *Parser) parseChild() (algebra.Expr, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	return p.parseChildBody()
}

// parseChildBody parses "expr )" after an already consumed '('.
func (p *Parser) parseChildBody() (algebra.Expr, error) {
	inner, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return inner, nil
}

// parseOperands parses "( left , right" and leaves the closing ')' or a
// third-argument ',' to the caller.
func (p *Parser) parseOperands() (left, right algebra.Expr, err error) {
	if _, err = p.expect(lexer.LParen); err != nil {
		return nil, nil, err
	}
	if left, err = p.ParseExpr(); err != nil {
		return nil, nil, err
	}
	if _, err = p.expect(lexer.Comma); err != nil {
		return nil, nil, err
	}
	if right, err = p.ParseExpr(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// parseFunctionalSetOp parses "(A, B)" after union/intersect/minus.
func (p *Parser) parseFunctionalSetOp(kind algebra.SetKind) (algebra.Expr, error) {
	left, right, err := p.parseOperands()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return algebra.SetOp{Kind: kind, Left: left, Right: right}, nil
}

// parseFunctionalJoin parses the forms following the join keyword:
//
//	join[pred](A, B)
//	join(A, B)
//	join(A, B, pred)
func (p *Parser) parseFunctionalJoin() (algebra.Expr, error) {
	var pred predicate.Node
	var err error
	if p.match(lexer.LBrack) {
		if pred, err = p.bracketPredicate(); err != nil {
			return nil, err
		}
	}

	left, right, err := p.parseOperands()
	if err != nil {
		return nil, err
	}

	if p.match(lexer.Comma) {
		tokens, err := p.collectJoinArgument()
		if err != nil {
			return nil, err
		}
		if pred != nil {
			return nil, qerr.New(qerr.KindParse, "Join predicate specified both in brackets and as third argument")
		}
		if pred, err = predicate.Parse(tokens); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return algebra.Join{Left: left, Right: right, Predicate: pred}, nil
}

// bracketPredicate parses "pred ]" after an already consumed '['.
func (p *Parser) bracketPredicate() (predicate.Node, error) {
	tokens, err := p.collectUntilMatchingBracket()
	if err != nil {
		return nil, err
	}
	pred, err := predicate.Parse(tokens)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBrack); err != nil {
		return nil, err
	}
	return pred, nil
}
