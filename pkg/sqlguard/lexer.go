package sqlguard

import (
	"github.com/leapstack-labs/mcp-panther/pkg/token"
)

// Lexer splits SQL into tokens whose spans point back into the input, so a
// rewrite can copy everything it does not touch byte for byte.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	last token.TokenType // type of the previously emitted token

	// Comments collected during lexing
	Comments []*token.Comment
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
		last:  token.EOF,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// atEOF distinguishes a real NUL byte from the end of input.
func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()
	tok := l.scan()
	l.last = tok.Type
	return tok
}

func (l *Lexer) scan() token.Token {
	start := l.currentPos()

	if l.atEOF() {
		return token.Token{Type: token.EOF, Span: token.Span{Start: start, End: start}}
	}

	switch l.ch {
	case '\'':
		l.readString()
		return l.emit(token.STRING, start)
	case '"':
		l.readQuoted('"')
		return l.emit(token.QUOTED_IDENT, start)
	case '`':
		l.readQuoted('`')
		return l.emit(token.QUOTED_IDENT, start)
	case '$':
		switch {
		case l.peekChar() == '$':
			l.readDollarString()
			return l.emit(token.STRING, start)
		case isDigit(l.peekChar()):
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
			return l.emit(token.PARAM, start)
		}
		l.readChar()
		return l.emit(token.ILLEGAL, start)
	case '?':
		l.readChar()
		return l.emit(token.PARAM, start)
	case '.':
		// .5 is a number unless it follows something that can be qualified
		if isDigit(l.peekChar()) && !l.canBeQualified() {
			l.readNumber()
			return l.emit(token.NUMBER, start)
		}
		return l.single(token.DOT, start)
	}

	if isIdentStart(l.ch) {
		l.readIdentifier()
		return l.emit(token.IDENT, start)
	}
	if isDigit(l.ch) {
		l.readNumber()
		return l.emit(token.NUMBER, start)
	}
	return l.readOperator(start)
}

// canBeQualified reports whether the previous token may be followed by a
// member access (t.col, "x".y, f().field).
func (l *Lexer) canBeQualified() bool {
	switch l.last {
	case token.IDENT, token.QUOTED_IDENT, token.RPAREN, token.RBRACKET:
		return true
	}
	return false
}

func (l *Lexer) readOperator(start token.Position) token.Token {
	switch l.ch {
	case '+':
		return l.single(token.PLUS, start)
	case '-':
		return l.single(token.MINUS, start)
	case '*':
		return l.single(token.STAR, start)
	case '/':
		return l.single(token.SLASH, start)
	case '%':
		return l.single(token.PERCENT, start)
	case '^':
		return l.single(token.CARET, start)
	case '&':
		return l.single(token.AMP, start)
	case ',':
		return l.single(token.COMMA, start)
	case ';':
		return l.single(token.SEMI, start)
	case '(':
		return l.single(token.LPAREN, start)
	case ')':
		return l.single(token.RPAREN, start)
	case '[':
		return l.single(token.LBRACKET, start)
	case ']':
		return l.single(token.RBRACKET, start)
	case '{':
		return l.single(token.LBRACE, start)
	case '}':
		return l.single(token.RBRACE, start)
	case '~':
		l.readChar()
		if l.ch == '*' {
			l.readChar()
		}
		return l.emit(token.TILDE, start)
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			return l.single(token.DPIPE, start)
		}
		return l.single(token.PIPE, start)
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			return l.single(token.DCOLON, start)
		}
		return l.single(token.COLON, start)
	case '=':
		switch l.peekChar() {
		case '>':
			l.readChar()
			return l.single(token.ARROW, start)
		case '=':
			l.readChar()
		}
		return l.single(token.EQ, start)
	case '!':
		switch l.peekChar() {
		case '=':
			l.readChar()
			return l.single(token.NE, start)
		case '~':
			l.readChar()
			l.readChar()
			if l.ch == '*' {
				l.readChar()
			}
			return l.emit(token.TILDE, start)
		}
		return l.single(token.ILLEGAL, start)
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			return l.single(token.LE, start)
		case '>':
			l.readChar()
			return l.single(token.NE, start)
		}
		return l.single(token.LT, start)
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			return l.single(token.GE, start)
		}
		return l.single(token.GT, start)
	}
	return l.single(token.ILLEGAL, start)
}

// single consumes the current character and emits a token ending after it.
func (l *Lexer) single(t token.TokenType, start token.Position) token.Token {
	l.readChar()
	return l.emit(t, start)
}

func (l *Lexer) emit(t token.TokenType, start token.Position) token.Token {
	end := l.currentPos()
	return token.Token{
		Type:    t,
		Literal: l.input[start.Offset:end.Offset],
		Span:    token.Span{Start: start, End: end},
	}
}

// skipWhitespaceAndComments skips whitespace and collects comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		// -- and // line comments
		if (l.ch == '-' && l.peekChar() == '-') || (l.ch == '/' && l.peekChar() == '/') {
			l.collectLineComment()
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.collectBlockComment()
			continue
		}

		break
	}
}

func (l *Lexer) collectLineComment() {
	startPos := l.currentPos()

	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.LineComment,
		Text: l.input[startPos.Offset:l.pos],
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// collectBlockComment collects a block comment. An unterminated comment
// runs to the end of input.
func (l *Lexer) collectBlockComment() {
	startPos := l.currentPos()

	l.readChar() // skip '/'
	l.readChar() // skip '*'

	for !l.atEOF() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // skip '*'
			l.readChar() // skip '/'
			break
		}
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.BlockComment,
		Text: l.input[startPos.Offset:l.pos],
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// readString consumes a single-quoted literal. Doubled quotes and
// backslash escapes stay inside the literal.
func (l *Lexer) readString() {
	l.readChar() // skip opening quote
	for !l.atEOF() {
		switch {
		case l.ch == '\\' && l.peekChar() != 0:
			l.readChar()
			l.readChar()
		case l.ch == '\'' && l.peekChar() == '\'':
			l.readChar()
			l.readChar()
		case l.ch == '\'':
			l.readChar() // skip closing quote
			return
		default:
			l.readChar()
		}
	}
}

// readQuoted consumes an identifier delimited by q, where a doubled q
// is an escaped quote.
func (l *Lexer) readQuoted(q byte) {
	l.readChar() // skip opening quote
	for !l.atEOF() {
		if l.ch == q {
			if l.peekChar() == q {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return
		}
		l.readChar()
	}
}

// readDollarString consumes a $$ ... $$ literal.
func (l *Lexer) readDollarString() {
	l.readChar()
	l.readChar()
	for !l.atEOF() {
		if l.ch == '$' && l.peekChar() == '$' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// readIdentifier consumes an unquoted identifier. Bytes of multi-byte
// UTF-8 sequences are treated as letters.
func (l *Lexer) readIdentifier() {
	for isIdentStart(l.ch) || isDigit(l.ch) || l.ch == '$' {
		l.readChar()
	}
}

// readNumber consumes a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && (isDigit(l.peekChar()) || !isIdentStart(l.peekChar())) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input, ending with EOF, and the
// comments found between them.
func Tokenize(input string) ([]token.Token, []*token.Comment) {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens, l.Comments
}
