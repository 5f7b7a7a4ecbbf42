// Package lexer turns relational-algebra query text into a token stream.
//
// Both surface syntaxes share one token set: symbolic glyphs (σ π ⋈ ∪ ∩ −)
// and the functional keywords (select, project, join, union, intersect,
// minus). Tokens carry no position information beyond their order.
package lexer

import "fmt"

// Kind identifies the category of a token.
type Kind int

const (
	Ident Kind = iota
	Keyword
	Number
	String
	Op // <= >= != == = < > && ||

	// Punctuation
	LParen // (
	RParen // )
	LBrack // [
	RBrack // ]
	Comma  // ,
	Dot    // .

	// Symbolic operators
	Sigma        // σ
	Pi           // π
	JoinSym      // ⋈
	UnionSym     // ∪ ⋃
	IntersectSym // ∩
	DiffSym      // − -
)

var kindNames = map[Kind]string{
	Ident:        "IDENT",
	Keyword:      "KW",
	Number:       "NUMBER",
	String:       "STRING",
	Op:           "OP",
	LParen:       "LPAREN",
	RParen:       "RPAREN",
	LBrack:       "LBRACK",
	RBrack:       "RBRACK",
	Comma:        "COMMA",
	Dot:          "DOT",
	Sigma:        "SIGMA",
	Pi:           "PI",
	JoinSym:      "JOIN_SYM",
	UnionSym:     "UNION_SYM",
	IntersectSym: "INTERSECT_SYM",
	DiffSym:      "DIFF_SYM",
}

// String returns the kind's display name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a (kind, text) pair.
// Keyword text is always lower case; identifier text keeps its casing.
type Token struct {
	Kind Kind
	Text string
}

// String renders the token for error messages, e.g. (IDENT, 'Age').
func (t Token) String() string {
	return fmt.Sprintf("(%s, %q)", t.Kind, t.Text)
}

// Is reports whether the token has the given kind and, when text is
// non-empty, the given text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && (text == "" || t.Text == text)
}

// IsKeyword reports whether the token is one of the given keywords.
func (t Token) IsKeyword(words ...string) bool {
	if t.Kind != Keyword {
		return false
	}
	for _, w := range words {
		if t.Text == w {
			return true
		}
	}
	return false
}

// keywords is the fixed keyword set, matched case-insensitively.
var keywords = map[string]bool{
	"select":    true,
	"project":   true,
	"join":      true,
	"union":     true,
	"intersect": true,
	"minus":     true,
	"on":        true,
	"and":       true,
	"or":        true,
	"not":       true,
	"true":      true,
	"false":     true,
	"null":      true,
}

// logicGlyphs map the unicode logic symbols to their keyword equivalents.
var logicGlyphs = map[rune]string{
	'¬': "not",
	'∧': "and",
	'∨': "or",
}
