package edhrec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBracketNumericMatchesNamed(t *testing.T) {
	for i, bracket := range Brackets {
		numeric, err := ParseBracket(string(rune('1' + i)))
		require.NoError(t, err)
		named, err := ParseBracket(string(bracket))
		require.NoError(t, err)
		require.Equal(t, named, numeric)
		require.Equal(t, i+1, numeric.Number())
	}
}

func TestParseBracket(t *testing.T) {
	cases := []struct {
		token  string
		expect BracketSpec
		path   string
		str    string
	}{
		{token: "", expect: BracketSpec{Bracket: BracketAll}, path: "", str: "all"},
		{token: "  All ", expect: BracketSpec{Bracket: BracketAll}, path: "", str: "all"},
		{token: "average", expect: BracketSpec{Bracket: BracketAll}, path: "", str: "all"},
		{token: "precon", expect: BracketSpec{Bracket: BracketExhibition}, path: "exhibition", str: "exhibition"},
		{token: "2", expect: BracketSpec{Bracket: BracketCore}, path: "core", str: "core"},
		{token: "CEDH/Budget", expect: BracketSpec{Bracket: BracketCEDH, Modifier: ModifierBudget}, path: "cedh/budget", str: "cedh/budget"},
		{token: "cedh-expensive", expect: BracketSpec{Bracket: BracketCEDH, Modifier: ModifierExpensive}, path: "cedh/expensive", str: "cedh/expensive"},
		{token: "exhibition\\budget", expect: BracketSpec{Bracket: BracketExhibition, Modifier: ModifierBudget}, path: "exhibition/budget", str: "exhibition/budget"},
		{token: "budget", expect: BracketSpec{Bracket: BracketAll, Modifier: ModifierBudget}, path: "budget", str: "budget"},
		{token: "/expensive/", expect: BracketSpec{Bracket: BracketAll, Modifier: ModifierExpensive}, path: "expensive", str: "expensive"},
		{token: "4//budget", expect: BracketSpec{Bracket: BracketOptimized, Modifier: ModifierBudget}, path: "optimized/budget", str: "optimized/budget"},
	}
	for _, test := range cases {
		t.Run(test.token, func(t *testing.T) {
			spec, err := ParseBracket(test.token)
			require.NoError(t, err)
			require.Equal(t, test.expect, spec)
			require.Equal(t, test.path, spec.Path())
			require.Equal(t, test.str, spec.String())
		})
	}
}

func TestParseBracketRejects(t *testing.T) {
	for _, token := range []string{"0", "6", "+2", "casual", "core/cheap", "-budget", "budget/core"} {
		t.Run(token, func(t *testing.T) {
			_, err := ParseBracket(token)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrValidation))

			var e *Error
			require.True(t, errors.As(err, &e))
			require.Equal(t, "BRACKET_UNSUPPORTED", e.Code)
			require.NotEmpty(t, e.Available)
		})
	}
}

func TestAllowedBrackets(t *testing.T) {
	allowed := AllowedBrackets()
	require.Len(t, allowed, 18)
	require.Equal(t, "all", allowed[0])
	require.Contains(t, allowed, "cedh/budget")
	for _, token := range allowed {
		spec, err := ParseBracket(token)
		require.NoError(t, err)
		require.Equal(t, token, spec.String())
	}
}

func TestBracketSpecText(t *testing.T) {
	text, err := BracketSpec{Bracket: BracketUpgraded, Modifier: ModifierBudget}.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "upgraded/budget", string(text))

	var spec BracketSpec
	require.NoError(t, spec.UnmarshalText([]byte("3")))
	require.Equal(t, BracketUpgraded, spec.Bracket)
	require.Error(t, spec.UnmarshalText([]byte("nope")))
}
