package edhrec

import (
	"encoding/json"
	"testing"

	"mightstone-backend/internal/tree"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseTree(t testing.TB, text string) tree.Node {
	t.Helper()
	root, err := tree.Parse([]byte(text))
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestTagsRunStopsAtNextHeader(t *testing.T) {
	root := parseTree(t, `{
		"props": {"pageProps": {"data": {"panels": {"links": [
			{"header": "Card Types", "value": "Creatures", "href": "/commanders/x/creatures"},
			{"header": "Tags", "value": ""},
			{"value": "Counters", "href": "/tags/counters"},
			{"header": "", "value": "Infect", "href": "/tags/infect"},
			{"value": "Superfriends", "href": "/tags/superfriends"},
			{"header": "Decks", "value": "Budget", "href": "/tags/budget"},
			{"value": "Expensive", "href": "/tags/expensive"}
		]}}}}
	}`)

	extractor := NewTagExtractor(nil)
	require.Equal(t, []string{"Counters", "Infect", "Superfriends"}, extractor.Names(root))

	records, tier := extractor.ExtractWithTier(root)
	require.Equal(t, "panels", tier)
	for _, r := range records {
		require.Nil(t, r.DeckCount)
	}
}

func TestTagsRunWithNestedItems(t *testing.T) {
	root := parseTree(t, `{"panels": {"links": [
		{"header": "Themes", "items": [{"value": "Should Not Appear", "href": "/tags/nope"}]},
		{"header": "Tags", "items": [
			{"value": "Proliferate", "href": "/tags/proliferate"},
			{"value": "Poison", "href": "/tags/poison"}
		]},
		{"header": "Kindred", "items": [{"value": "Phyrexians", "href": "/tags/phyrexians"}]}
	]}}`)

	require.Equal(t, []string{"Proliferate", "Poison"}, NewTagExtractor(nil).Names(root))
}

func TestTagCountsFromTaglinks(t *testing.T) {
	root := parseTree(t, `{"panels": {
		"links": [{"value": "Dragons", "href": "/tags/dragons/commanders"}],
		"taglinks": [{"value": "Dragons", "count": 13041, "slug": "dragons"}]
	}}`)

	expect := []TagRecord{{Name: "Dragons", DeckCount: intPtr(13041)}}
	if diff := cmp.Diff(expect, NewTagExtractor(nil).Extract(root)); diff != "" {
		t.Fatal(diff)
	}
}

func TestTagMissingFromTaglinksHasNoCount(t *testing.T) {
	root := parseTree(t, `{"panels": {
		"links": [
			{"header": "Tags"},
			{"value": "Dragons"},
			{"value": "Treasure"}
		],
		"taglinks": [{"value": "Dragons", "count": "1.2k"}, {"value": "Unrelated", "count": 4}]
	}}`)

	expect := []TagRecord{
		{Name: "Dragons", DeckCount: intPtr(1200)},
		{Name: "Treasure", DeckCount: nil},
	}
	if diff := cmp.Diff(expect, NewTagExtractor(nil).Extract(root)); diff != "" {
		t.Fatal(diff)
	}
}

func TestTaglinksAloneAreUsedAsNames(t *testing.T) {
	root := parseTree(t, `{"panels": {
		"links": [{"header": "Decks", "value": "Budget", "href": "/average-decks/x/budget"}],
		"taglinks": [{"value": "Lifegain", "count": 77}, {"value": "Angels", "count": 12}]
	}}`)

	expect := []TagRecord{
		{Name: "Lifegain", DeckCount: intPtr(77)},
		{Name: "Angels", DeckCount: intPtr(12)},
	}
	require.Equal(t, expect, NewTagExtractor(nil).Extract(root))
}

const legacyPayload = `{"props": {"pageProps": {"commander": {
	"themes": [{"name": "Superfriends", "count": "1.2k"}, "Planeswalkers"],
	"metadata": {"tagCloud": {"sections": [
		{"label": "Themes", "tags": [
			{"name": "Counters", "deckCount": 500},
			{"name": "Infect", "deck_count": "1,234"}
		]},
		{"label": "Kindred", "tags": [{"name": "Phyrexian"}, {"tag": {"name": "Horrors", "num_decks": 3}}]}
	]}}
}}}}`

func TestLegacyTagCloud(t *testing.T) {
	root := parseTree(t, legacyPayload)

	records, tier := NewTagExtractor(nil).ExtractWithTier(root)
	require.Equal(t, "tag-cloud", tier)

	expect := []TagRecord{
		{Name: "Superfriends", DeckCount: intPtr(1200)},
		{Name: "Counters", DeckCount: intPtr(500)},
		{Name: "Infect", DeckCount: intPtr(1234)},
		{Name: "Phyrexian", DeckCount: nil},
		{Name: "Horrors", DeckCount: intPtr(3)},
	}
	if diff := cmp.Diff(expect, records); diff != "" {
		t.Fatal(diff)
	}
}

func TestLegacyNamesMatchDirectTraversal(t *testing.T) {
	root := parseTree(t, legacyPayload)
	commander := root.At(tree.Path{"props", "pageProps", "commander"})

	// every "name" under themes and the tag cloud, the section labels are
	// not names
	var direct []string
	for _, source := range []tree.Node{commander.Get("themes"), commander.At(tree.Path{"metadata", "tagCloud"})} {
		tree.Walk(source, func(path tree.Path, node tree.Node) bool {
			if path.Last() == "name" {
				direct = append(direct, node.Text())
			}
			return true
		})
	}
	filter := NewTagFilter()
	var expected []string
	for _, name := range direct {
		if cleaned, ok := filter.Clean(name); ok {
			expected = append(expected, cleaned)
		}
	}

	require.ElementsMatch(t, expected, NewTagExtractor(nil).Names(root))
}

func TestExtractIsIdempotent(t *testing.T) {
	for _, payload := range []string{legacyPayload, `{"panels": {"links": [{"header": "Tags"}, {"value": "A"}, {"value": "B"}], "taglinks": [{"value": "B", "count": 2}]}}`} {
		root := parseTree(t, payload)
		extractor := NewTagExtractor(nil)

		first, err := json.Marshal(extractor.Extract(root))
		require.NoError(t, err)
		second, err := json.Marshal(extractor.Extract(root))
		require.NoError(t, err)
		require.Equal(t, string(first), string(second))
	}
}

func TestDedupKeepsFirstSeen(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		expect  []TagRecord
	}{
		{
			name:    "first count wins",
			payload: `{"commander": {"themes": [{"name": "Tokens", "count": 5}, {"name": "Ramp"}, {"name": "Tokens", "count": 9}]}}`,
			expect:  []TagRecord{{Name: "Tokens", DeckCount: intPtr(5)}, {Name: "Ramp"}},
		},
		{
			name:    "first missing count wins",
			payload: `{"commander": {"themes": [{"name": "Tokens"}, {"name": "Tokens", "count": 9}]}}`,
			expect:  []TagRecord{{Name: "Tokens"}},
		},
		{
			name:    "case sensitive",
			payload: `{"commander": {"themes": [{"name": "Tokens", "count": 1}, {"name": "tokens", "count": 2}]}}`,
			expect:  []TagRecord{{Name: "Tokens", DeckCount: intPtr(1)}, {Name: "tokens", DeckCount: intPtr(2)}},
		},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			records := NewTagExtractor(nil).Extract(parseTree(t, test.payload))
			if diff := cmp.Diff(test.expect, records); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestNoiseFilter(t *testing.T) {
	root := parseTree(t, `{"panels": {"links": [
		{"header": "Tags"},
		{"value": "  Top   Cards "},
		{"value": "Ramp"},
		{"value": "1234"},
		{"value": "Tokens &amp; Counters"},
		{"value": "An extremely long label that is certainly not a real tag name on the site"},
		{"value": "   "}
	]}}`)

	require.Equal(t, []string{"Ramp", "Tokens & Counters"}, NewTagExtractor(nil).Names(root))

	filter := NewTagFilter("ramp")
	require.Equal(t, []string{"Tokens & Counters"}, NewTagExtractor(filter).Names(root))

	filter.Replace(nil)
	require.Equal(t, []string{"Ramp", "Tokens & Counters"}, NewTagExtractor(filter).Names(root))
}

func TestNoTierMatches(t *testing.T) {
	for _, payload := range []string{`{}`, `[]`, `"text"`, `{"panels": {"links": [{"header": "Decks"}]}}`, `{"commander": {"themes": []}}`} {
		records := NewTagExtractor(nil).Extract(parseTree(t, payload))
		require.NotNil(t, records)
		require.Empty(t, records)
	}
}

type fixedTier struct {
	records []TagRecord
}

func (fixedTier) Name() string { return "fixed" }

func (f fixedTier) Extract(tree.Node) []TagRecord { return f.records }

func TestCustomTiersRunInOrder(t *testing.T) {
	extractor := NewTagExtractor(nil,
		fixedTier{records: []TagRecord{{Name: "Lands"}}},
		fixedTier{records: []TagRecord{{Name: "Voltron"}}},
	)
	records, tier := extractor.ExtractWithTier(tree.Node{})
	require.Equal(t, "fixed", tier)
	require.Equal(t, []TagRecord{{Name: "Voltron"}}, records)
}
