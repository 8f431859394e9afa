package edhrec

import (
	"fmt"
	"strings"
)

const wubrg = "wubrg"

var identitySlugs = map[string]string{
	"w":     "mono-white",
	"u":     "mono-blue",
	"b":     "mono-black",
	"r":     "mono-red",
	"g":     "mono-green",
	"wu":    "azorius",
	"ub":    "dimir",
	"br":    "rakdos",
	"rg":    "gruul",
	"wg":    "selesnya",
	"wb":    "orzhov",
	"ur":    "izzet",
	"bg":    "golgari",
	"wr":    "boros",
	"ug":    "simic",
	"wub":   "esper",
	"ubr":   "grixis",
	"brg":   "jund",
	"wrg":   "naya",
	"wug":   "bant",
	"wbg":   "abzan",
	"wur":   "jeskai",
	"ubg":   "sultai",
	"wbr":   "mardu",
	"urg":   "temur",
	"wubr":  "yore-tiller",
	"ubrg":  "glint-eye",
	"wbrg":  "dune-brood",
	"wurg":  "ink-treader",
	"wubg":  "witch-maw",
	"wubrg": "five-color",
}

var identityCodes = func() map[string]string {
	codes := make(map[string]string, len(identitySlugs))
	for code, slug := range identitySlugs {
		codes[slug] = code
	}
	return codes
}()

// Identity is a commander color identity in its three spellings.
type Identity struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// CanonicalizeIdentity accepts a WUBRG code in any order ("rwu", "{W}{U}"),
// a label ("Jeskai", "Mono White") or a slug ("mono-white").
func CanonicalizeIdentity(value string) (Identity, error) {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return Identity{}, NewValidationError("IDENTITY_UNSUPPORTED", "Missing color identity")
	}

	slugGuess := strings.Join(strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(s)), "-")
	code, ok := identityCodes[slugGuess]
	if !ok {
		code, ok = sortColorCode(s)
	}
	slug, known := identitySlugs[code]
	if !ok || !known {
		return Identity{}, NewValidationError("IDENTITY_UNSUPPORTED", fmt.Sprintf("Unrecognized color identity: %s", value))
	}

	return Identity{Code: code, Label: identityLabel(slug), Slug: slug}, nil
}

// sortColorCode orders color letters as WUBRG. Only letters, braces,
// commas and spaces are accepted.
func sortColorCode(s string) (string, bool) {
	present := map[rune]bool{}
	for _, r := range s {
		switch {
		case strings.ContainsRune(wubrg, r):
			present[r] = true
		case strings.ContainsRune("{}, /", r):
		default:
			return "", false
		}
	}
	var b strings.Builder
	for _, r := range wubrg {
		if present[r] {
			b.WriteRune(r)
		}
	}
	return b.String(), b.Len() > 0
}

func identityLabel(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
