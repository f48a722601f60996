package formula

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		source    string
		canonical string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"value % 2 / 4", "((value % 2) / 4)"},
		{"value ? 1 : value ? 2 : 3", "(value ? 1 : (value ? 2 : 3))"},
		{"!value && value || value", "(((!value) && value) || value)"},
		{"value || value && value", "(value || (value && value))"},
		{"1 < 2 == true", "((1 < 2) == true)"},
		{"value == 1 != false", "((value == 1) != false)"},
		{"-value + +2", "((-value) + (+2))"},
		{"helpers.round(value, 2)", "round(value, 2)"},
		{"toFixed(toF(value))", "toFixed(toF(value))"},
		{"$VALUE$ * 3.5", "(value * 3.5)"},
		{`value > 10 ? "high" : 'low'`, `((value > 10) ? "high" : "low")`},
		{"value == null", "(value == null)"},
		{"  value  ", "value"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			f, err := Compile(tt.source)
			require.NoError(t, err)
			require.EqualValues(t, tt.canonical, f.String())
			require.EqualValues(t, tt.source, f.Source())
		})
	}
}

func TestParseNodes(t *testing.T) {
	t.Run("1", func(t *testing.T) {
		tokens, err := Tokenize("clamp(value, 0, 100)")
		require.NoError(t, err)
		n, err := Parse(tokens)
		require.NoError(t, err)
		call, ok := n.(*Call)
		require.True(t, ok)
		require.EqualValues(t, "clamp", call.Name)
		require.EqualValues(t, 3, len(call.Args))
		require.EqualValues(t, 2, call.Depth())
		_, ok = call.Args[0].(*VariableRef)
		require.True(t, ok)
		lit, ok := call.Args[2].(*Literal)
		require.True(t, ok)
		require.EqualValues(t, Num(100), lit.Value)
		require.EqualValues(t, 16, lit.Pos())
	})
	t.Run("2", func(t *testing.T) {
		tokens, err := Tokenize("x * 2")
		require.NoError(t, err)
		n, err := Parse(tokens, WithPlaceholder("x"))
		require.NoError(t, err)
		require.EqualValues(t, "(x * 2)", NodeString(n))

		_, err = Parse(tokens)
		require.True(t, errors.Is(err, &ParseError{Kind: UnknownIdentifier}))
	})
	t.Run("3", func(t *testing.T) {
		// stream without EOF is accepted
		n, err := Parse([]Token{{Kind: Number, Lexeme: "5", Pos: 0}})
		require.NoError(t, err)
		require.EqualValues(t, "5", NodeString(n))
	})
}

func parseErr(t *testing.T, source string, opts ...Option) *ParseError {
	_, err := Compile(source, opts...)
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected ParseError, got %v", err)
	return pe
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		source string
		kind   ParseErrorKind
		pos    int
	}{
		{"window.alert(1)", UnknownFunction, 0},
		{"foo(value)", UnknownFunction, 0},
		{"1 + helpers.foo(1)", UnknownFunction, 4},
		{"helpers.helpers.round(1)", UnknownFunction, 0},
		{"value(1)", UnknownFunction, 0},
		{"eval('1')", UnknownFunction, 0},
		{"x + 1", UnknownIdentifier, 0},
		{"window.location", UnknownIdentifier, 0},
		{"helpers.round", UnknownIdentifier, 0},
		{"", UnexpectedToken, 0},
		{"1 +", UnexpectedToken, 3},
		{"1 2", UnexpectedToken, 2},
		{"(1", UnexpectedToken, 2},
		{"1)", UnexpectedToken, 1},
		{"value ? 1", UnexpectedToken, 9},
		{"round(1,)", UnexpectedToken, 8},
		{"round(1 2)", UnexpectedToken, 8},
		{"a.", UnexpectedToken, 2},
		{"value.5", UnexpectedToken, 5},
		{", 1", UnexpectedToken, 0},
		{": 1", UnexpectedToken, 0},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			pe := parseErr(t, tt.source)
			require.EqualValues(t, tt.kind, pe.Kind, pe.Error())
			require.EqualValues(t, tt.pos, pe.Pos, pe.Error())
		})
	}
}

func TestArity(t *testing.T) {
	t.Run("1", func(t *testing.T) {
		pe := parseErr(t, "clamp(value, 0)")
		require.EqualValues(t, ArityMismatch, pe.Kind)
		require.EqualValues(t, Arity{Min: 3, Max: 3}, pe.Expected)
		require.EqualValues(t, 2, pe.Got)
		require.Contains(t, pe.Msg, "expects 3 argument(s), got 2")
	})
	t.Run("2", func(t *testing.T) {
		pe := parseErr(t, "round()")
		require.EqualValues(t, ArityMismatch, pe.Kind)
		require.EqualValues(t, Arity{Min: 1, Max: 2}, pe.Expected)
		require.EqualValues(t, 0, pe.Got)
	})
	t.Run("3", func(t *testing.T) {
		pe := parseErr(t, "value + toFixed(value, 2, 3)")
		require.EqualValues(t, ArityMismatch, pe.Kind)
		require.EqualValues(t, 8, pe.Pos)
		require.EqualValues(t, 3, pe.Got)
	})
	t.Run("4", func(t *testing.T) {
		for _, src := range []string{"round(value)", "round(value, 1)", "toFixed(value)", "toFixed(value, 2)", "between(value, 1, 2)"} {
			_, err := Compile(src)
			require.NoError(t, err, src)
		}
	})
}

func TestLimits(t *testing.T) {
	t.Run("tokens", func(t *testing.T) {
		opt := WithLimits(Limits{MaxTokens: 256, MaxDepth: 1000})
		// 128 operands and 127 operators
		src := strings.Repeat("1+", 127) + "1"
		_, err := Compile(src, opt)
		require.NoError(t, err)

		pe := parseErr(t, src+"+1", opt)
		require.EqualValues(t, LimitExceeded, pe.Kind)
		require.EqualValues(t, 256, pe.Pos)
	})
	t.Run("depth unary", func(t *testing.T) {
		_, err := Compile(strings.Repeat("-", DefaultMaxDepth-1) + "1")
		require.NoError(t, err)

		pe := parseErr(t, strings.Repeat("-", DefaultMaxDepth)+"1")
		require.EqualValues(t, LimitExceeded, pe.Kind)
	})
	t.Run("depth chain", func(t *testing.T) {
		_, err := Compile(strings.Repeat("value+", DefaultMaxDepth-1) + "value")
		require.NoError(t, err)

		pe := parseErr(t, strings.Repeat("value+", DefaultMaxDepth)+"value")
		require.EqualValues(t, LimitExceeded, pe.Kind)
	})
	t.Run("depth parentheses", func(t *testing.T) {
		// parentheses do not add tree levels
		f, err := Compile(strings.Repeat("(", 100) + "value" + strings.Repeat(")", 100))
		require.NoError(t, err)
		require.EqualValues(t, 1, f.Root().Depth())

		src := strings.Repeat("(", 60) + strings.Repeat("-", DefaultMaxDepth) + "1" + strings.Repeat(")", 60)
		pe := parseErr(t, src)
		require.EqualValues(t, LimitExceeded, pe.Kind)
	})
	t.Run("depth calls", func(t *testing.T) {
		f, err := Compile(strings.Repeat("abs(", DefaultMaxDepth-1) + "value" + strings.Repeat(")", DefaultMaxDepth-1))
		require.NoError(t, err)
		require.EqualValues(t, DefaultMaxDepth, f.Root().Depth())

		f, err = Compile(strings.Repeat("helpers.abs(", 32) + "value" + strings.Repeat(")", 32))
		require.NoError(t, err)
		require.EqualValues(t, 33, f.Root().Depth())

		src := strings.Repeat("abs(", DefaultMaxDepth) + "value" + strings.Repeat(")", DefaultMaxDepth)
		pe := parseErr(t, src)
		require.EqualValues(t, LimitExceeded, pe.Kind)
	})
	t.Run("depth mixed", func(t *testing.T) {
		// every call argument level is one tree level
		src := strings.Repeat("clamp(", 31) + "value" + strings.Repeat(", 0, 1)", 31)
		f, err := Compile(src)
		require.NoError(t, err)
		require.EqualValues(t, 32, f.Root().Depth())
	})
	t.Run("custom", func(t *testing.T) {
		opt := WithLimits(Limits{MaxTokens: 3})
		_, err := Compile("1 + 2", opt)
		require.NoError(t, err)
		pe := parseErr(t, "1 + 2 + 3", opt)
		require.EqualValues(t, LimitExceeded, pe.Kind)

		opt = WithLimits(Limits{MaxDepth: 2})
		_, err = Compile("1 + 2", opt)
		require.NoError(t, err)
		pe = parseErr(t, "1 + 2 + 3", opt)
		require.EqualValues(t, LimitExceeded, pe.Kind)
	})
}
