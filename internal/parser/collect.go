package parser

import (
	"github.com/qimcis/raq/internal/lexer"
	"github.com/qimcis/raq/internal/qerr"
)

// collectUntilChildParen consumes the condition or attribute list of a
// σ/π term and stops at the '(' that opens the child expression.
//
// A '(' at depth 0 opens the child when the token before it can end an
// operand: an identifier, number, string, ')' or true/false/null. Any other
// '(' groups part of the condition and increases the depth. A ')' at depth 0
// stops collection and is left for the caller to report.
//
// This is a heuristic, not an LL(1) decision: "π A (B) (R)" stops before
// "(B)" and then fails on the trailing "(R)". Callers rely on exactly this
// behavior.
func (p *Parser) collectUntilChildParen() []lexer.Token {
	var collected []lexer.Token
	depth := 0
	for {
		tok, ok := p.peek()
		if !ok {
			return collected
		}

		switch tok.Kind {
		case lexer.LParen:
			if depth == 0 && len(collected) > 0 && endsOperand(collected[len(collected)-1]) {
				return collected
			}
			depth++
		case lexer.RParen:
			if depth == 0 {
				return collected
			}
			depth--
		}

		collected = append(collected, tok)
		p.pos++
	}
}

// endsOperand reports whether tok can be the last token of a condition.
func endsOperand(tok lexer.Token) bool {
	switch tok.Kind {
	case lexer.Ident, lexer.Number, lexer.String, lexer.RParen:
		return true
	case lexer.Keyword:
		return tok.IsKeyword("true", "false", "null")
	default:
		return false
	}
}

// collectUntilMatchingBracket consumes tokens after a '[' up to, but not
// including, its matching ']'.
func (p *Parser) collectUntilMatchingBracket() ([]lexer.Token, error) {
	var collected []lexer.Token
	depth := 1
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, qerr.New(qerr.KindParse, "Unclosed bracket in join predicate")
		}
		switch tok.Kind {
		case lexer.LBrack:
			depth++
		case lexer.RBrack:
			depth--
			if depth == 0 {
				return collected, nil
			}
		}
		collected = append(collected, tok)
		p.pos++
	}
}

// collectJoinArgument consumes the third argument of join(A, B, pred) up
// to, but not including, the ')' that closes the call.
func (p *Parser) collectJoinArgument() ([]lexer.Token, error) {
	var collected []lexer.Token
	depth := 0
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, qerr.New(qerr.KindParse, "Unclosed predicate in join(...)")
		}
		switch tok.Kind {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			if depth == 0 {
				return collected, nil
			}
			depth--
		}
		collected = append(collected, tok)
		p.pos++
	}
}

// parseAttrList reads a projection's attribute names. Stray commas and
// parentheses are skipped; any other non-identifier token is an error.
func parseAttrList(tokens []lexer.Token) ([]string, error) {
	var attrs []string
	for _, tok := range tokens {
		switch tok.Kind {
		case lexer.Ident:
			attrs = append(attrs, tok.Text)
		case lexer.Comma, lexer.LParen, lexer.RParen:
		default:
			return nil, qerr.New(qerr.KindParse, "Invalid attribute list near token %s", tok)
		}
	}
	if len(attrs) == 0 {
		return nil, qerr.New(qerr.KindParse, "Projection requires at least one attribute")
	}
	return attrs, nil
}
