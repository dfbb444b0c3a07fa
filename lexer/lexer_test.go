package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPunctuationAndOperators(t *testing.T) {
	lx := New(`(){}[]:,.* - < > <= >= == <>`)
	var kinds []Kind
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		if tok.Kind == EOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{
		LPAREN, RPAREN, LBRACE, RBRACE, LBRACKET, RBRACKET, COLON, COMMA, DOT, STAR,
		DASH, LT, GT, LTE, GTE, EQ, NEQ,
	}, kinds)
}

func TestNextKeywordsCaseInsensitive(t *testing.T) {
	lx := New(`match Match MATCH where RETURN with AND or null TRUE false`)
	want := []Kind{MATCH, MATCH, MATCH, WHERE, RETURN, WITH, AND, OR, NULLKW, TRUEKW, FALSEKW}
	for _, k := range want {
		tok, err := lx.Next()
		require.NoError(t, err)
		assert.Equal(t, k, tok.Kind)
	}
}

func TestNextIdentPreservesCase(t *testing.T) {
	lx := New(`Customer cu`)
	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, IDENT, tok.Kind)
	assert.Equal(t, "Customer", tok.Text)
}

func TestNextNumberIntegerAndFloat(t *testing.T) {
	lx := New(`42 -7 3.14 -0.5`)
	want := []string{"42", "-7", "3.14", "-0.5"}
	for _, w := range want {
		tok, err := lx.Next()
		require.NoError(t, err)
		assert.Equal(t, NUMBER, tok.Kind)
		assert.Equal(t, w, tok.Text)
	}
}

func TestNextStringEscapeDecoding(t *testing.T) {
	lx := New(`"hello\nworld" "a\"b" "tab\ttab"`)

	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, `a"b`, tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, "tab\ttab", tok.Text)
}

func TestNextLineComment(t *testing.T) {
	lx := New("MATCH // this is a comment\nWHERE")
	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, MATCH, tok.Kind)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, WHERE, tok.Kind)
	assert.Equal(t, 2, tok.Line)
}

func TestNextUnterminatedStringIsAnError(t *testing.T) {
	lx := New(`"unterminated`)
	_, err := lx.Next()
	require.Error(t, err)
	var lexErr *LexError
	assert.ErrorAs(t, err, &lexErr)
}

func TestNextIllegalCharacter(t *testing.T) {
	lx := New(`$`)
	tok, err := lx.Next()
	require.Error(t, err)
	assert.Equal(t, ILLEGAL, tok.Kind)
}
