package parser_test

import (
	"testing"

	"github.com/lookbusy1344/alya-vm/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_TokenizeVariable(t *testing.T) {
	lines, err := parser.NewLexer("@x := 1").Tokenize()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Tokens, 3)
	assert.Equal(t, parser.TokenVariable, lines[0].Tokens[0].Kind)
	assert.Equal(t, "x", lines[0].Tokens[0].Literal)
}

func TestLexer_BlankAndCommentOnlyLinesAreSkipped(t *testing.T) {
	lines, err := parser.NewLexer("\n; a comment\n@x := 1\n").Tokenize()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Number)
}

func TestLexer_TrailingCommentStripped(t *testing.T) {
	lines, err := parser.NewLexer("@x := 1 ; set x").Tokenize()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Tokens, 3)
}

func TestLexer_SemicolonInsideStringIsNotAComment(t *testing.T) {
	lines, err := parser.NewLexer(`@s := "a;b"`).Tokenize()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Tokens, 3)
	assert.Equal(t, "a;b", lines[0].Tokens[2].Literal)
}

func TestLexer_StringEscapes(t *testing.T) {
	lines, err := parser.NewLexer(`@s := "a\nb\t\"c\""`).Tokenize()
	require.NoError(t, err)
	assert.Equal(t, "a\nb\t\"c\"", lines[0].Tokens[2].Literal)
}

func TestLexer_UnterminatedStringFails(t *testing.T) {
	_, err := parser.NewLexer(`@s := "oops`).Tokenize()
	require.Error(t, err)
}

func TestLexer_HexAndBinaryNumberLiterals(t *testing.T) {
	lines, err := parser.NewLexer("@x := 0xFF\n@y := 0b101").Tokenize()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "0xFF", lines[0].Tokens[2].Literal)
	assert.Equal(t, "0b101", lines[1].Tokens[2].Literal)
}

func TestLexer_MultiCharOperatorsDisambiguatedFromSingleChar(t *testing.T) {
	lines, err := parser.NewLexer("@a <=> @b").Tokenize()
	require.NoError(t, err)
	require.Len(t, lines[0].Tokens, 3)
	assert.Equal(t, parser.TokenCmpSwap, lines[0].Tokens[1].Kind)
}

func TestLexer_ShiftOperatorsNotConfusedWithComparisons(t *testing.T) {
	lines, err := parser.NewLexer("@a := @a << 1").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, parser.TokenShl, lines[0].Tokens[3].Kind)
}

func TestLexer_BareAtSignFails(t *testing.T) {
	_, err := parser.NewLexer("@ := 1").Tokenize()
	require.Error(t, err)
}

func TestLexer_UnexpectedCharacterFails(t *testing.T) {
	_, err := parser.NewLexer("@a := 1 #").Tokenize()
	require.Error(t, err)
}
