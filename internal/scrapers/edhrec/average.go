package edhrec

import (
	"fmt"
	"strings"

	"mightstone-backend/internal/tree"
)

// AverageDeckPage is what an average deck page yields besides the card list.
type AverageDeckPage struct {
	Cards         []DeckCard
	CommanderCard *CommanderCard
	// Payload is the decoded __NEXT_DATA__, absent when the page had none.
	Payload tree.Node
}

// ParseAverageDeckPage reads the deck from the page's __NEXT_DATA__ and
// falls back to plain text deck lists in the HTML. A page yielding no cards
// is an upstream error.
func ParseAverageDeckPage(page Page, commander string) (AverageDeckPage, error) {
	doc, err := page.Document()
	if err != nil {
		return AverageDeckPage{}, err
	}

	result := AverageDeckPage{}
	root, ok := ExtractNextData(doc)
	if ok {
		result.Payload = root
		result.Cards, result.CommanderCard = ParseDeckWithCommander(root, commander)
	}
	if len(result.Cards) == 0 {
		result.Cards = ExtractDeckText(doc)
	}

	if len(result.Cards) == 0 {
		e := NewUpstreamError(page.URL, page.Status, "Parsed deck contained no cards", nil)
		if ok {
			keys := PageProps(root).Keys()
			if len(keys) == 0 {
				e.Details = "pageProps keys: (no keys)"
			} else {
				e.Details = fmt.Sprintf("pageProps keys: %s", strings.Join(keys, ", "))
			}
		}
		return AverageDeckPage{}, e
	}
	return result, nil
}
