package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nucleuslang/nucleus/internal/nucleuserr"
)

func tokenTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	l := New(src)
	var out []TokenType
	for {
		tok, err := l.Next()
		require.Nil(t, err)
		out = append(out, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	return out
}

func TestLexerBasicForm(t *testing.T) {
	types := tokenTypes(t, `(grep "foo" true 3.5 -2)`)
	require.Equal(t, []TokenType{LPAREN, SYMBOL, STRING, BOOL, FLOAT, INT, RPAREN, EOF}, types)
}

func TestLexerSkipsComments(t *testing.T) {
	types := tokenTypes(t, "; a comment\n(count lines)")
	require.Equal(t, []TokenType{LPAREN, SYMBOL, SYMBOL, RPAREN, EOF}, types)
}

func TestLexerStringEscapes(t *testing.T) {
	l := New(`"a\nb\"c"`)
	tok, err := l.Next()
	require.Nil(t, err)
	require.Equal(t, STRING, tok.Type)
	require.Equal(t, "a\nb\"c", tok.Value)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New(`"unterminated`)
	_, err := l.Next()
	require.NotNil(t, err)
	require.Equal(t, nucleuserr.ParseError, err.Kind)
}

func TestLexerNegativeNumber(t *testing.T) {
	l := New("-5 -2.5 (- 1 2)")
	tok, err := l.Next()
	require.Nil(t, err)
	require.Equal(t, INT, tok.Type)
	require.Equal(t, "-5", tok.Text)

	tok, err = l.Next()
	require.Nil(t, err)
	require.Equal(t, FLOAT, tok.Type)
	require.Equal(t, "-2.5", tok.Text)
}

func TestLexerIdentWithDashAndQuestionMark(t *testing.T) {
	l := New("starts-with? fuzzy-search")
	tok, err := l.Next()
	require.Nil(t, err)
	require.Equal(t, SYMBOL, tok.Type)
	require.Equal(t, "starts-with?", tok.Text)
}

func TestLexerIllegalCharacter(t *testing.T) {
	l := New("#")
	_, err := l.Next()
	require.NotNil(t, err)
	require.Equal(t, nucleuserr.ParseError, err.Kind)
}
