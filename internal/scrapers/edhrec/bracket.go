package edhrec

import (
	"fmt"
	"regexp"
	"strings"
)

type Bracket string

const (
	BracketAll        Bracket = "all"
	BracketExhibition Bracket = "exhibition"
	BracketCore       Bracket = "core"
	BracketUpgraded   Bracket = "upgraded"
	BracketOptimized  Bracket = "optimized"
	BracketCEDH       Bracket = "cedh"
)

// Brackets lists the named tiers in power order, Brackets[i] is bracket i+1.
var Brackets = []Bracket{BracketExhibition, BracketCore, BracketUpgraded, BracketOptimized, BracketCEDH}

type Modifier string

const (
	ModifierNone      Modifier = ""
	ModifierBudget    Modifier = "budget"
	ModifierExpensive Modifier = "expensive"
)

var modifiers = []Modifier{ModifierBudget, ModifierExpensive}

var bracketAliases = map[string]Bracket{
	"":           BracketAll,
	"all":        BracketAll,
	"average":    BracketAll,
	"default":    BracketAll,
	"precon":     BracketExhibition,
	"exhibition": BracketExhibition,
	"core":       BracketCore,
	"upgraded":   BracketUpgraded,
	"optimized":  BracketOptimized,
	"cedh":       BracketCEDH,
	"1":          BracketExhibition,
	"2":          BracketCore,
	"3":          BracketUpgraded,
	"4":          BracketOptimized,
	"5":          BracketCEDH,
}

// BracketSpec selects an average deck listing.
type BracketSpec struct {
	Bracket  Bracket
	Modifier Modifier
}

var repeatedSlash = regexp.MustCompile(`/+`)

// ParseBracket normalizes a user supplied bracket token. It accepts the
// numbers 1-5, bracket names and their aliases, an optional "/budget" or
// "/expensive" suffix (a dash works too) and a bare "budget" or "expensive"
// meaning every bracket with that modifier.
func ParseBracket(token string) (BracketSpec, error) {
	text := strings.ToLower(strings.TrimSpace(token))
	text = strings.ReplaceAll(text, "\\", "/")
	text = repeatedSlash.ReplaceAllString(text, "/")
	text = strings.Trim(text, "/")

	base := text
	modifier := ModifierNone
	for _, m := range modifiers {
		if text == string(m) {
			return BracketSpec{Bracket: BracketAll, Modifier: m}, nil
		}
		if strings.HasSuffix(text, "/"+string(m)) || strings.HasSuffix(text, "-"+string(m)) {
			base = strings.TrimSpace(text[:len(text)-len(m)-1])
			modifier = m
			break
		}
	}

	bracket, ok := bracketAliases[base]
	if !ok || (base == "" && modifier != ModifierNone) {
		return BracketSpec{}, &Error{
			Kind:      KindValidation,
			Code:      "BRACKET_UNSUPPORTED",
			Message:   fmt.Sprintf("Bracket '%s' is not supported", token),
			Available: AllowedBrackets(),
		}
	}
	return BracketSpec{Bracket: bracket, Modifier: modifier}, nil
}

// Number returns the 1-5 power level, 0 for "all".
func (s BracketSpec) Number() int {
	for i, b := range Brackets {
		if b == s.Bracket {
			return i + 1
		}
	}
	return 0
}

// Path is the URL suffix following /average-decks/<slug>: "", "core",
// "cedh/budget" or "budget".
func (s BracketSpec) Path() string {
	var parts []string
	if s.Bracket != BracketAll && s.Bracket != "" {
		parts = append(parts, string(s.Bracket))
	}
	if s.Modifier != ModifierNone {
		parts = append(parts, string(s.Modifier))
	}
	return strings.Join(parts, "/")
}

func (s BracketSpec) String() string {
	path := s.Path()
	if path == "" {
		return string(BracketAll)
	}
	return path
}

func (s BracketSpec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *BracketSpec) UnmarshalText(text []byte) error {
	parsed, err := ParseBracket(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AllowedBrackets returns the display form of every valid BracketSpec.
func AllowedBrackets() []string {
	out := make([]string, 0, (len(Brackets)+1)*(len(modifiers)+1))
	for _, b := range append([]Bracket{BracketAll}, Brackets...) {
		for _, m := range append([]Modifier{ModifierNone}, modifiers...) {
			out = append(out, BracketSpec{Bracket: b, Modifier: m}.String())
		}
	}
	return out
}
