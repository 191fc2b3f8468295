package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellumlang/vellum/token"
)

func scanTypes(t *testing.T, input string) []token.TokenType {
	t.Helper()
	toks, err := New(input).Scan()
	require.NoError(t, err)
	types := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.TokenType
	}
	return types
}

func TestOperatorsSuccess(t *testing.T) {
	types := scanTypes(t, "==/=*+>-<!=<=>=!")
	require.Equal(t, []token.TokenType{
		token.EQUAL_EQUAL,
		token.DIV,
		token.ASSIGN,
		token.MULT,
		token.ADD,
		token.LARGER,
		token.SUB,
		token.LESS,
		token.NOT_EQUAL,
		token.LESS_EQUAL,
		token.LARGER_EQUAL,
		token.BANG,
		token.EOF,
	}, types)
}

func TestCompoundOperators(t *testing.T) {
	types := scanTypes(t, "+=-=**")
	require.Equal(t, []token.TokenType{
		token.PLUS_ASSIGN,
		token.MINUS_ASSIGN,
		token.POW,
		token.EOF,
	}, types)
}

func TestBracketsAndPunctuation(t *testing.T) {
	types := scanTypes(t, "(){}[]:,?.")
	require.Equal(t, []token.TokenType{
		token.LPA,
		token.RPA,
		token.LCUR,
		token.RCUR,
		token.LBRACKET,
		token.RBRACKET,
		token.COLON,
		token.COMMA,
		token.QUESTION,
		token.DOT,
		token.EOF,
	}, types)
}

func TestEllipsis(t *testing.T) {
	types := scanTypes(t, "...")
	require.Equal(t, []token.TokenType{token.ELLIPSIS, token.EOF}, types)
}

func TestStringLiteral(t *testing.T) {
	toks, err := New(`"hello world"`).Scan()
	require.NoError(t, err)
	require.Equal(t, token.STRING, toks[0].TokenType)
	require.Equal(t, "hello world", toks[0].Literal)
}

func TestUnclosedStringLiteral(t *testing.T) {
	_, err := New(`"unterminated`).Scan()
	require.Error(t, err)
}

func TestNumberLiterals(t *testing.T) {
	toks, err := New("1 2.5 .75").Scan()
	require.NoError(t, err)
	require.Equal(t, token.INT, toks[0].TokenType)
	require.Equal(t, token.FLOAT, toks[1].TokenType)
	require.Equal(t, token.FLOAT, toks[2].TokenType)
	require.Equal(t, 2.5, toks[1].Literal)
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	types := scanTypes(t, "func myVar and or in await elif")
	require.Equal(t, []token.TokenType{
		token.FUNC,
		token.IDENTIFIER,
		token.AND,
		token.OR,
		token.IN,
		token.AWAIT,
		token.ELIF,
		token.EOF,
	}, types)
}

func TestComment(t *testing.T) {
	types := scanTypes(t, "1 # trailing comment\n2")
	require.Equal(t, []token.TokenType{token.INT, token.INT, token.EOF}, types)
}

func TestScanSuccess(t *testing.T) {
	types := scanTypes(t, "(){}**;+!=<=")
	require.Equal(t, []token.TokenType{
		token.LPA,
		token.RPA,
		token.LCUR,
		token.RCUR,
		token.POW,
		token.SEMICOLON,
		token.ADD,
		token.NOT_EQUAL,
		token.LESS_EQUAL,
		token.EOF,
	}, types)
}
