package syntax

import (
	"unicode"
	"unicode/utf8"

	"github.com/gogpu/mathl/diag"
)

// Lexer tokenizes mathl source code.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 5 characters of source.
	estTokens := len(source) / 5
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source. The returned error is a
// *diag.Error of kind SyntaxError without a filename.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, nil
}

func (l *Lexer) errorf(line, column int, format string, args ...any) *diag.Error {
	e := diag.Errorf(diag.SyntaxError, format, args...)
	e.Line, e.Column = line, column
	return e
}

func (l *Lexer) scanToken() error {
	startLine, startCol := l.line, l.column
	r := l.advance()

	switch r {
	// Single-character tokens
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case ';':
		l.addToken(TokenSemicolon)
	case '~':
		l.addToken(TokenTilde)
	case '.':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(TokenDot)
		}
	case '%':
		l.addWithAssign(TokenPercent, TokenPercentEqual)
	case '^':
		l.addWithAssign(TokenCaret, TokenCaretEqual)
	case '*':
		l.addWithAssign(TokenStar, TokenStarEqual)
	case '=':
		l.addWithAssign(TokenEqual, TokenEqualEqual)
	case '!':
		l.addWithAssign(TokenBang, TokenBangEqual)

	// Operators that could be one, two or three characters
	case '+':
		if l.match('+') {
			l.addToken(TokenPlusPlus)
		} else {
			l.addWithAssign(TokenPlus, TokenPlusEqual)
		}
	case '-':
		if l.match('-') {
			l.addToken(TokenMinusMinus)
		} else {
			l.addWithAssign(TokenMinus, TokenMinusEqual)
		}
	case '/':
		if l.match('/') {
			// Line comment
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		} else if l.match('*') {
			if !l.blockComment() {
				return l.errorf(startLine, startCol, "unterminated block comment")
			}
		} else {
			l.addWithAssign(TokenSlash, TokenSlashEqual)
		}
	case '<':
		if l.match('<') {
			l.addWithAssign(TokenLessLess, TokenLessLessEqual)
		} else {
			l.addWithAssign(TokenLess, TokenLessEqual)
		}
	case '>':
		if l.match('>') {
			l.addWithAssign(TokenGreaterGreater, TokenGreaterGreaterEqual)
		} else {
			l.addWithAssign(TokenGreater, TokenGreaterEqual)
		}
	case '&':
		if l.match('&') {
			l.addToken(TokenAmpAmp)
		} else {
			l.addWithAssign(TokenAmpersand, TokenAmpEqual)
		}
	case '|':
		if l.match('|') {
			l.addToken(TokenPipePipe)
		} else {
			l.addWithAssign(TokenPipe, TokenPipeEqual)
		}

	case '#':
		return l.errorf(startLine, startCol, "preprocessor directives are not supported")

	// Whitespace
	case ' ', '\r', '\t':
	case '\n':
		l.line++
		l.column = 1

	default:
		if isDigit(r) {
			l.number()
		} else if isAlpha(r) || r == '_' {
			l.identifier()
		} else {
			return l.errorf(startLine, startCol, "unexpected character %q", r)
		}
	}

	return nil
}

// addWithAssign adds withEq when the next character is '=', else plain.
func (l *Lexer) addWithAssign(plain, withEq TokenKind) {
	if l.match('=') {
		l.addToken(withEq)
	} else {
		l.addToken(plain)
	}
}

func (l *Lexer) blockComment() bool {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return true
		}
		if l.peek() == '\n' {
			l.advance()
			l.line++
			l.column = 1
			continue
		}
		l.advance()
	}
	return false
}

func (l *Lexer) number() {
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		l.addToken(TokenIntLiteral)
		return
	}

	isFloat := l.source[l.start] == '.'
	for isDigit(l.peek()) {
		l.advance()
	}

	// "1." is a float; "1.x" is a member access on an int.
	if !isFloat && l.peek() == '.' && !isAlpha(l.peekNext()) && l.peekNext() != '_' {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if isFloat && (l.peek() == 'f' || l.peek() == 'F') {
		l.advance()
	}

	if isFloat {
		l.addToken(TokenFloatLiteral)
	} else {
		l.addToken(TokenIntLiteral)
	}
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	text := l.source[l.start:l.pos]
	l.addToken(lookupKeyword(text))
}

var keywords = map[string]TokenKind{
	"const":   TokenConst,
	"else":    TokenElse,
	"false":   TokenBoolLiteral,
	"for":     TokenFor,
	"if":      TokenIf,
	"in":      TokenIn,
	"out":     TokenOut,
	"return":  TokenReturn,
	"true":    TokenBoolLiteral,
	"uniform": TokenUniform,
	"while":   TokenWhile,
}

func lookupKeyword(text string) TokenKind {
	if kind, ok := keywords[text]; ok {
		return kind
	}
	return TokenIdent
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.line,
		Column: l.column - utf8.RuneCountInString(l.source[l.start:l.pos]),
	})
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}
