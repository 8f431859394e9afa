package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CollapseSpace replaces every run of whitespace with a single space and trims.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// CleanText unescapes HTML entities, then collapses whitespace.
func CleanText(s string) string {
	return CollapseSpace(html.UnescapeString(s))
}

// HasLetter reports whether s contains at least one ASCII letter.
func HasLetter(s string) bool {
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// LettersOnly lowercases s and drops everything that is not a-z.
func LettersOnly(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FoldASCII decomposes s (NFKD), drops combining marks and then drops any
// rune that still falls outside ASCII. "Jötun Grunt" becomes "Jotun Grunt".
func FoldASCII(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
