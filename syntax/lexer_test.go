package syntax

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/gogpu/mathl/diag"
)

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenKind
	}{
		{
			name:     "declaration",
			input:    "uniform vec3 v;",
			expected: []TokenKind{TokenUniform, TokenIdent, TokenIdent, TokenSemicolon, TokenEOF},
		},
		{
			name:     "swizzle assignment",
			input:    "v.xy += 1.0;",
			expected: []TokenKind{TokenIdent, TokenDot, TokenIdent, TokenPlusEqual, TokenFloatLiteral, TokenSemicolon, TokenEOF},
		},
		{
			name:     "shift assign",
			input:    "a <<= b >> 2",
			expected: []TokenKind{TokenIdent, TokenLessLessEqual, TokenIdent, TokenGreaterGreater, TokenIntLiteral, TokenEOF},
		},
		{
			name:     "inc dec",
			input:    "i++ --j",
			expected: []TokenKind{TokenIdent, TokenPlusPlus, TokenMinusMinus, TokenIdent, TokenEOF},
		},
		{
			name:     "logical",
			input:    "a && !b || c != d",
			expected: []TokenKind{TokenIdent, TokenAmpAmp, TokenBang, TokenIdent, TokenPipePipe, TokenIdent, TokenBangEqual, TokenIdent, TokenEOF},
		},
		{
			name:     "comments",
			input:    "a // line\n/* block\n comment */ b",
			expected: []TokenKind{TokenIdent, TokenIdent, TokenEOF},
		},
		{
			name:     "keywords",
			input:    "if else for while return in out const true false",
			expected: []TokenKind{TokenIf, TokenElse, TokenFor, TokenWhile, TokenReturn, TokenIn, TokenOut, TokenConst, TokenBoolLiteral, TokenBoolLiteral, TokenEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			be.Err(t, err, nil)
			kinds := make([]TokenKind, len(tokens))
			for i, tok := range tokens {
				kinds[i] = tok.Kind
			}
			be.Equal(t, kinds, tt.expected)
		})
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"42", TokenIntLiteral},
		{"0x1F", TokenIntLiteral},
		{"1.0", TokenFloatLiteral},
		{"1.", TokenFloatLiteral},
		{".5", TokenFloatLiteral},
		{"2e10", TokenFloatLiteral},
		{"1.5e-3", TokenFloatLiteral},
		{"3.0f", TokenFloatLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			be.Err(t, err, nil)
			be.Equal(t, len(tokens), 2)
			be.Equal(t, tokens[0].Kind, tt.kind)
			be.Equal(t, tokens[0].Lexeme, tt.input)
		})
	}
}

func TestLexer_IntMember(t *testing.T) {
	tokens, err := NewLexer("1.x").Tokenize()
	be.Err(t, err, nil)
	be.Equal(t, tokens[0].Kind, TokenIntLiteral)
	be.Equal(t, tokens[1].Kind, TokenDot)
}

func TestLexer_Positions(t *testing.T) {
	tokens, err := NewLexer("float a;\n  a = 1.0;").Tokenize()
	be.Err(t, err, nil)
	be.Equal(t, tokens[0].Line, 1)
	be.Equal(t, tokens[0].Column, 1)
	be.Equal(t, tokens[1].Column, 7)
	be.Equal(t, tokens[3].Line, 2)
	be.Equal(t, tokens[3].Column, 3)
	be.Equal(t, tokens[5].Column, 7)
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		input string
		line  int
	}{
		{"#define X 1", 1},
		{"a\n$", 2},
		{"/* never closed", 1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			be.True(t, diag.Is(err, diag.SyntaxError))
			be.Equal(t, err.(*diag.Error).Line, tt.line)
		})
	}
}
