// Package syntax provides mathl lexing and parsing.
//
// The parser produces the raw AST consumed by package sema together with
// the global declarations bucketed by qualifier. There is no macro
// preprocessor: a '#' directive is a syntax error.
package syntax

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral
	TokenBoolLiteral

	// Operators
	TokenPlus                // +
	TokenMinus               // -
	TokenStar                // *
	TokenSlash               // /
	TokenPercent             // %
	TokenAmpersand           // &
	TokenPipe                // |
	TokenCaret               // ^
	TokenTilde               // ~
	TokenBang                // !
	TokenEqual               // =
	TokenLess                // <
	TokenGreater             // >
	TokenDot                 // .
	TokenComma               // ,
	TokenSemicolon           // ;
	TokenPlusPlus            // ++
	TokenMinusMinus          // --
	TokenEqualEqual          // ==
	TokenBangEqual           // !=
	TokenLessEqual           // <=
	TokenGreaterEqual        // >=
	TokenAmpAmp              // &&
	TokenPipePipe            // ||
	TokenLessLess            // <<
	TokenGreaterGreater      // >>
	TokenPlusEqual           // +=
	TokenMinusEqual          // -=
	TokenStarEqual           // *=
	TokenSlashEqual          // /=
	TokenPercentEqual        // %=
	TokenAmpEqual            // &=
	TokenPipeEqual           // |=
	TokenCaretEqual          // ^=
	TokenLessLessEqual       // <<=
	TokenGreaterGreaterEqual // >>=

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Keywords
	TokenConst
	TokenElse
	TokenFor
	TokenIf
	TokenIn
	TokenOut
	TokenReturn
	TokenUniform
	TokenWhile
)

var tokenNames = map[TokenKind]string{
	TokenEOF:          "end of input",
	TokenError:        "invalid character",
	TokenIdent:        "identifier",
	TokenIntLiteral:   "integer literal",
	TokenFloatLiteral: "float literal",
	TokenBoolLiteral:  "bool literal",
	TokenSemicolon:    "';'",
	TokenComma:        "','",
	TokenLeftParen:    "'('",
	TokenRightParen:   "')'",
	TokenLeftBrace:    "'{'",
	TokenRightBrace:   "'}'",
	TokenLeftBracket:  "'['",
	TokenRightBracket: "']'",
	TokenEqual:        "'='",
	TokenConst:        "const",
	TokenElse:         "else",
	TokenFor:          "for",
	TokenIf:           "if",
	TokenIn:           "in",
	TokenOut:          "out",
	TokenReturn:       "return",
	TokenUniform:      "uniform",
	TokenWhile:        "while",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	if op, ok := operatorText[k]; ok {
		return "'" + op + "'"
	}
	return "Unknown"
}

// operatorText maps operator tokens to their source spelling, which is
// also the Op stored on AST nodes.
var operatorText = map[TokenKind]string{
	TokenPlus:                "+",
	TokenMinus:               "-",
	TokenStar:                "*",
	TokenSlash:               "/",
	TokenPercent:             "%",
	TokenAmpersand:           "&",
	TokenPipe:                "|",
	TokenCaret:               "^",
	TokenTilde:               "~",
	TokenBang:                "!",
	TokenEqual:               "=",
	TokenLess:                "<",
	TokenGreater:             ">",
	TokenDot:                 ".",
	TokenPlusPlus:            "++",
	TokenMinusMinus:          "--",
	TokenEqualEqual:          "==",
	TokenBangEqual:           "!=",
	TokenLessEqual:           "<=",
	TokenGreaterEqual:        ">=",
	TokenAmpAmp:              "&&",
	TokenPipePipe:            "||",
	TokenLessLess:            "<<",
	TokenGreaterGreater:      ">>",
	TokenPlusEqual:           "+=",
	TokenMinusEqual:          "-=",
	TokenStarEqual:           "*=",
	TokenSlashEqual:          "/=",
	TokenPercentEqual:        "%=",
	TokenAmpEqual:            "&=",
	TokenPipeEqual:           "|=",
	TokenCaretEqual:          "^=",
	TokenLessLessEqual:       "<<=",
	TokenGreaterGreaterEqual: ">>=",
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}
