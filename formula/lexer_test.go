package formula

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	ret := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		ret[i] = t.Kind
	}
	return ret
}

func lexemes(tokens []Token) []string {
	ret := make([]string, len(tokens))
	for i, t := range tokens {
		ret[i] = t.Lexeme
	}
	return ret
}

func TestTokenize(t *testing.T) {
	t.Run("1", func(t *testing.T) {
		tokens, err := Tokenize(`value > 10 ? "high" : "low"`)
		require.NoError(t, err)
		require.EqualValues(t, []TokenKind{Ident, Operator, Number, Operator, String, Operator, String, EOF}, kinds(tokens))
		require.EqualValues(t, []string{"value", ">", "10", "?", "high", ":", "low", ""}, lexemes(tokens))
		pos := make([]int, len(tokens))
		for i := range tokens {
			pos[i] = tokens[i].Pos
		}
		require.EqualValues(t, []int{0, 6, 8, 11, 13, 20, 22, 27}, pos)
	})
	t.Run("2", func(t *testing.T) {
		tokens, err := Tokenize("a<=b&&c||!d!=e==f>=g%h")
		require.NoError(t, err)
		require.EqualValues(t, []string{"a", "<=", "b", "&&", "c", "||", "!", "d", "!=", "e", "==", "f", ">=", "g", "%", "h", ""}, lexemes(tokens))
	})
	t.Run("3", func(t *testing.T) {
		tokens, err := Tokenize("helpers.round(value, 2)")
		require.NoError(t, err)
		require.EqualValues(t, []TokenKind{Ident, Operator, Ident, Paren, Ident, Comma, Number, Paren, EOF}, kinds(tokens))
	})
	t.Run("4", func(t *testing.T) {
		tokens, err := Tokenize(`'it\'s' + "say \"hi\"" + "a\nb"`)
		require.NoError(t, err)
		require.EqualValues(t, "it's", tokens[0].Lexeme)
		require.EqualValues(t, `say "hi"`, tokens[2].Lexeme)
		require.EqualValues(t, `a\nb`, tokens[4].Lexeme)
	})
	t.Run("5", func(t *testing.T) {
		tokens, err := Tokenize("3.25 + .5 + 007")
		require.NoError(t, err)
		require.EqualValues(t, []string{"3.25", "+", ".5", "+", "007", ""}, lexemes(tokens))
	})
	t.Run("6", func(t *testing.T) {
		tokens, err := Tokenize("$VALUE$ * 2")
		require.NoError(t, err)
		require.EqualValues(t, Ident, tokens[0].Kind)
		require.EqualValues(t, LegacyPlaceholder, tokens[0].Lexeme)
	})
	t.Run("7", func(t *testing.T) {
		tokens, err := Tokenize(" \t\r\n")
		require.NoError(t, err)
		require.EqualValues(t, []Token{{Kind: EOF, Pos: 4}}, tokens)
	})
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		source string
		pos    int
		msg    string
	}{
		{`"abc`, 0, "unterminated string literal"},
		{`1 + 'abc\'`, 4, "unterminated string literal"},
		{"1.", 0, "malformed number '1.'"},
		{"2 * 1.2.3", 4, "malformed number '1.2.3'"},
		{"12abc", 0, "malformed number '12abc'"},
		{"value + 1" + strings.Repeat("0", 400), 8, "malformed number '1" + strings.Repeat("0", 400) + "': out of range"},
		{"value # 1", 6, `unrecognized character '#'`},
		{"a & b", 2, `unrecognized character '&'`},
		{"$foo", 0, `unrecognized character '$'`},
		{"value = 1", 6, `unrecognized character '='`},
		{"value; 1", 5, `unrecognized character ';'`},
		{"x°", 1, `unrecognized character '°'`},
	}
	for _, tt := range tests {
		name := tt.source
		if len(name) > 32 {
			name = name[:32]
		}
		t.Run(name, func(t *testing.T) {
			_, err := Tokenize(tt.source)
			require.Error(t, err)
			lexErr, ok := err.(*LexError)
			require.True(t, ok)
			require.EqualValues(t, tt.pos, lexErr.Pos)
			require.EqualValues(t, tt.msg, lexErr.Msg)
		})
	}
}
