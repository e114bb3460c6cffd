package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	output := make([]TokenKind, 0)
	for _, token := range tokens {
		output = append(output, token.Kind)
	}
	return output
}

func TestLexerOperators(t *testing.T) {
	tokens, err := Tokenize("[]{}+-*/%** <<= >>= ..= .. . **= != ==", "test", false)
	require.Nil(t, err)

	assert.Equal(t, []TokenKind{
		LBracket, RBracket, LCurly, RCurly,
		Plus, Minus, Multiply, Divide, Modulo, Power,
		ShiftLeftAssign, ShiftRightAssign,
		DotDotEq, DoubleDot, Dot, PowerAssign, NotEqual, Equal,
		EOF,
	}, kinds(tokens))

	for _, token := range tokens {
		assert.NotEqual(t, Unknown, token.Kind)
	}
}

func TestLexerLiterals(t *testing.T) {
	tokens, err := Tokenize(`1_000 3.25 'a\n' "\x41" name let`, "test", false)
	require.Nil(t, err)
	require.Len(t, tokens, 7)

	assert.Equal(t, Int, tokens[0].Kind)
	assert.Equal(t, "1000", tokens[0].Value)
	assert.Equal(t, Float, tokens[1].Kind)
	assert.Equal(t, "3.25", tokens[1].Value)
	assert.Equal(t, "a\n", tokens[2].Value)
	assert.Equal(t, "A", tokens[3].Value)
	assert.Equal(t, Identifier, tokens[4].Kind)
	assert.Equal(t, Let, tokens[5].Kind)
}

func TestLexerTrivia(t *testing.T) {
	tests := []struct {
		Name     string
		Input    string
		Expected []TokenKind
	}{
		{
			Name:     "logical newline",
			Input:    "a\nb",
			Expected: []TokenKind{Identifier, Newline, Identifier, EOF},
		},
		{
			Name:     "blank and comment lines",
			Input:    "\n# c\na",
			Expected: []TokenKind{NonLogicalNewline, Comment, NonLogicalNewline, Identifier, EOF},
		},
		{
			Name:     "newline inside brackets",
			Input:    "f(\n1)\n",
			Expected: []TokenKind{Identifier, LParen, NonLogicalNewline, Int, RParen, Newline, EOF},
		},
		{
			Name:     "newline inside block",
			Input:    "{\na\n}",
			Expected: []TokenKind{LCurly, Newline, Identifier, Newline, RCurly, EOF},
		},
		{
			Name:     "trailing comment",
			Input:    "1; // done",
			Expected: []TokenKind{Int, Semicolon, Comment, EOF},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			tokens, err := Tokenize(test.Input, "test", true)
			require.Nil(t, err)
			assert.Equal(t, test.Expected, kinds(tokens))
		})
	}
}

func TestLexerErrors(t *testing.T) {
	_, err := Tokenize("'never closed", "test", false)
	require.NotNil(t, err)
	assert.True(t, err.Incomplete)

	_, err = Tokenize("/* open", "test", false)
	require.NotNil(t, err)
	assert.True(t, err.Incomplete)

	_, err = Tokenize("a $ b", "test", false)
	require.NotNil(t, err)
	assert.False(t, err.Incomplete)
	assert.Equal(t, uint(3), err.Span.Start.Column)
}

func TestCharacterClasses(t *testing.T) {
	for _, char := range "azAZ_" {
		assert.True(t, IsLetter(char), string(char))
	}
	for _, char := range "09@[`{ä" {
		assert.False(t, IsLetter(char), string(char))
	}
	for _, char := range "09afAF" {
		assert.True(t, IsHexDigit(char), string(char))
	}
	for _, char := range "gG_ " {
		assert.False(t, IsHexDigit(char), string(char))
	}
	assert.True(t, IsIdentChar('7'))
	assert.False(t, IsIdentChar('.'))
}

func TestTokenKindNames(t *testing.T) {
	assert.Equal(t, "**=", PowerAssign.String())
	assert.Equal(t, "await", Await.String())
	assert.Equal(t, "identifier", Identifier.String())
	for name, kind := range Keywords {
		assert.Equal(t, name, kind.String())
	}
}
