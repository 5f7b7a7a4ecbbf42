package lexer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/qimcis/raq/internal/qerr"
)

// Lexer tokenizes relational-algebra query strings.
type Lexer struct {
	input []rune
	pos   int
}

// NewLexer creates a new lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

// Tokenize returns all tokens of input, or a TOKENIZE_ERROR on the first
// unrecognized character.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, ok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// peek returns the rune at offset n from the current position, or 0.
func (l *Lexer) peek(n int) rune {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) done() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token. ok is false once the input is exhausted.
func (l *Lexer) NextToken() (tok Token, ok bool, err error) {
	for !l.done() && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.done() {
		return Token{}, false, nil
	}

	ch := l.input[l.pos]

	switch {
	case ch == '"' || ch == '\'':
		return Token{Kind: String, Text: l.readString(ch)}, true, nil
	case unicode.IsDigit(ch):
		return Token{Kind: Number, Text: l.readNumber()}, true, nil
	}

	// Two-character operators win over their one-character prefixes.
	switch two := string([]rune{ch, l.peek(1)}); two {
	case "<=", ">=", "!=", "==", "&&", "||":
		l.pos += 2
		return Token{Kind: Op, Text: two}, true, nil
	}

	if kind, single := singleRuneKinds[ch]; single {
		l.pos++
		return Token{Kind: kind, Text: string(ch)}, true, nil
	}

	if ch == '<' || ch == '>' || ch == '=' {
		l.pos++
		return Token{Kind: Op, Text: string(ch)}, true, nil
	}

	if unicode.IsLetter(ch) || ch == '_' {
		ident := l.readIdentifier()
		if low := strings.ToLower(ident); keywords[low] {
			return Token{Kind: Keyword, Text: low}, true, nil
		}
		return Token{Kind: Ident, Text: ident}, true, nil
	}

	if word, isGlyph := logicGlyphs[ch]; isGlyph {
		l.pos++
		return Token{Kind: Keyword, Text: word}, true, nil
	}

	return Token{}, false, qerr.New(qerr.KindTokenize, "Unexpected character in expression: %s", string(ch))
}

// singleRuneKinds holds punctuation and the symbolic operator glyphs.
var singleRuneKinds = map[rune]Kind{
	'(': LParen,
	')': RParen,
	'[': LBrack,
	']': RBrack,
	',': Comma,
	'.': Dot,
	'σ': Sigma,
	'π': Pi,
	'⋈': JoinSym,
	'∪': UnionSym,
	'⋃': UnionSym,
	'∩': IntersectSym,
	'−': DiffSym,
	'-': DiffSym,
}

// readString reads a quoted string. A backslash escapes the next character
// verbatim; an unterminated string runs to the end of input.
func (l *Lexer) readString(quote rune) string {
	var result strings.Builder
	l.pos++ // skip opening quote

	for !l.done() {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			result.WriteRune(l.input[l.pos+1])
			l.pos += 2
			continue
		}
		l.pos++
		if ch == quote {
			break
		}
		result.WriteRune(ch)
	}

	return norm.NFC.String(result.String())
}

// readNumber reads a maximal run of digits and dots. Signs and exponents are
// not part of a number.
func (l *Lexer) readNumber() string {
	start := l.pos
	for !l.done() && (unicode.IsDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return string(l.input[start:l.pos])
}

// readIdentifier reads letters, digits and underscores.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	l.pos++
	for !l.done() {
		ch := l.input[l.pos]
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			break
		}
		l.pos++
	}
	return string(l.input[start:l.pos])
}
