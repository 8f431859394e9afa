package edhrec

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"mightstone-backend/internal/tree"
)

var countKeys = []string{"deckCount", "deck_count", "numDecks", "num_decks", "count", "decks"}

// ParseCount parses a deck count as upstream renders it: "1234", "1,234",
// "1.5k" or "2m".
func ParseCount(text string) (int, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, ",", "")
	if text == "" {
		return 0, false
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(text, "k"):
		multiplier = 1_000
		text = strings.TrimSpace(strings.TrimSuffix(text, "k"))
	case strings.HasSuffix(text, "m"):
		multiplier = 1_000_000
		text = strings.TrimSpace(strings.TrimSuffix(text, "m"))
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false
	}
	return int(value * multiplier), true
}

// countOf reads a count from a numeric or textual scalar.
func countOf(node tree.Node) *int {
	if n, ok := node.Number(); ok && n >= 0 {
		count := int(n)
		return &count
	}
	if text, ok := node.String(); ok {
		if count, ok := ParseCount(text); ok {
			return &count
		}
	}
	return nil
}

// countFrom returns the first parseable count among the well known count keys.
func countFrom(node tree.Node, keys ...string) *int {
	if len(keys) == 0 {
		keys = countKeys
	}
	for _, key := range keys {
		if count := countOf(node.Get(key)); count != nil {
			return count
		}
	}
	return nil
}

var (
	parenCountRegex  = regexp.MustCompile(`\(([^)]+)\)\s*$`)
	suffixCountRegex = regexp.MustCompile(`([0-9][0-9,.]*\s*[kKmM]?)(?:\s+decks?)?$`)
)

// SplitNameAndCount splits labels like "Tokens (1,234)" or "Tokens 567 decks"
// into the name and the count.
func SplitNameAndCount(text string) (string, *int) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", nil
	}

	if loc := parenCountRegex.FindStringSubmatchIndex(cleaned); loc != nil {
		name := strings.TrimSpace(cleaned[:loc[0]])
		if count, ok := ParseCount(cleaned[loc[2]:loc[3]]); ok {
			return name, &count
		}
		return name, nil
	}

	if loc := suffixCountRegex.FindStringSubmatchIndex(cleaned); loc != nil {
		// a count glued to the end of a word ("Vehicles2") is part of the name
		if loc[0] > 0 && cleaned[loc[0]-1] != ' ' {
			return cleaned, nil
		}
		count, ok := ParseCount(cleaned[loc[2]:loc[3]])
		if ok {
			name := strings.Trim(cleaned[:loc[0]], " -:–")
			return name, &count
		}
	}
	return cleaned, nil
}
