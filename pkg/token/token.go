// Package token defines the lexical tokens seen by the SQL guard.
//
// Keywords are not token types here: reserved words are looked up per
// dialect, so every bare word is an IDENT and the classifier decides what it
// means from its neighbours.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads better at call sites than token.Type
type TokenType int32

//nolint:revive // QUOTED_IDENT keeps the upper-case token naming
const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Words and literals
	IDENT        // unquoted identifier or keyword
	QUOTED_IDENT // "name" or `name`
	NUMBER       // 123, 45.67, 1e10
	STRING       // 'hello', $$body$$
	PARAM        // ?, $1, :name bind placeholders

	// Operators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	DPIPE    // ||
	EQ       // =
	NE       // != or <>
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	ARROW    // =>
	CARET    // ^
	TILDE    // ~, ~*, !~, !~*
	AMP      // &
	PIPE     // |
	DOT      // .
	COMMA    // ,
	SEMI     // ;
	COLON    // :
	DCOLON   // ::
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	LBRACE   // {
	RBRACE   // }
)

var tokenNames = map[TokenType]string{
	EOF:          "EOF",
	ILLEGAL:      "ILLEGAL",
	IDENT:        "IDENT",
	QUOTED_IDENT: "QUOTED_IDENT",
	NUMBER:       "NUMBER",
	STRING:       "STRING",
	PARAM:        "PARAM",
	PLUS:         "+",
	MINUS:        "-",
	STAR:         "*",
	SLASH:        "/",
	PERCENT:      "%",
	DPIPE:        "||",
	EQ:           "=",
	NE:           "<>",
	LT:           "<",
	GT:           ">",
	LE:           "<=",
	GE:           ">=",
	ARROW:        "=>",
	CARET:        "^",
	TILDE:        "~",
	AMP:          "&",
	PIPE:         "|",
	DOT:          ".",
	COMMA:        ",",
	SEMI:         ";",
	COLON:        ":",
	DCOLON:       "::",
	LPAREN:       "(",
	RPAREN:       ")",
	LBRACKET:     "[",
	RBRACKET:     "]",
	LBRACE:       "{",
	RBRACE:       "}",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int32(t))
}

// IsOperator reports whether t is an arithmetic, comparison or string
// operator. An operand is expected on either side of an operator.
func (t TokenType) IsOperator() bool {
	switch t {
	case PLUS, MINUS, STAR, SLASH, PERCENT, DPIPE,
		EQ, NE, LT, GT, LE, GE, ARROW, CARET, TILDE, AMP, PIPE:
		return true
	}
	return false
}

// IsWord reports whether t names something (quoted or not).
func (t TokenType) IsWord() bool {
	return t == IDENT || t == QUOTED_IDENT
}

// Token is a lexical token with its location in the source text.
type Token struct {
	Type    TokenType
	Literal string // source text exactly as written
	Span    Span
}

// Is reports whether the token is an unquoted word equal to kw, ignoring case.
// kw must be upper case.
func (t Token) Is(kw string) bool {
	if t.Type != IDENT || len(t.Literal) != len(kw) {
		return false
	}
	for i := 0; i < len(kw); i++ {
		c := t.Literal[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != kw[i] {
			return false
		}
	}
	return true
}

func (t Token) String() string {
	if t.Literal == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)@%d:%d", t.Type, t.Literal, t.Span.Start.Line, t.Span.Start.Column)
}
