package edhrec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractSections(t *testing.T) {
	root := parseTree(t, `{"props": {"pageProps": {
		"highSynergyCards": [{"name": "Evolution Sage"}, {"name": "evolution sage"}, {"names": ["Fire", "Ice"]}],
		"data": {
			"top_cards": ["Sol Ring", "Arcane Signet"],
			"popularcards": {"cardviews": [{"cardName": "Sol Ring"}, {"label": "Command Tower"}]},
			"game-changers": {"items": [{"card": {"name": "Smothering Tithe"}}]}
		}
	}}}`)

	sections := ExtractSections(root)
	require.Equal(t, []Section{
		{Header: SectionHighSynergy, Cards: []string{"Evolution Sage", "Fire // Ice"}},
		{Header: SectionTopCards, Cards: []string{"Sol Ring", "Arcane Signet", "Command Tower"}},
		{Header: SectionGameChangers, Cards: []string{"Smothering Tithe"}},
	}, sections)
}

func TestExtractSectionsEmpty(t *testing.T) {
	sections := ExtractSections(parseTree(t, `{"unrelated": [{"name": "x"}]}`))
	require.Len(t, sections, 3)
	for _, s := range sections {
		require.NotNil(t, s.Cards)
		require.Empty(t, s.Cards)
	}
}
