package edhrec

// TagRecord is a commander theme together with the number of decks using it.
// DeckCount is nil when upstream did not publish a count for the tag.
type TagRecord struct {
	Name      string `json:"tag"`
	DeckCount *int   `json:"deck_count"`
}

func TagNames(records []TagRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

type CollectionItem struct {
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
	Image string `json:"image,omitempty"`

	Synergy        *float64 `json:"synergy,omitempty"`
	NumDecks       *int     `json:"num_decks,omitempty"`
	PotentialDecks *int     `json:"potential_decks,omitempty"`
}

type Collection struct {
	Header string           `json:"header"`
	Items  []CollectionItem `json:"items"`
}

type Container struct {
	Collections []Collection `json:"collections"`
}

type NormalizedPage struct {
	Header      string    `json:"header"`
	Description string    `json:"description"`
	Container   Container `json:"container"`
}

// ItemCount returns the number of items across every collection.
func (p NormalizedPage) ItemCount() int {
	total := 0
	for _, c := range p.Container.Collections {
		total += len(c.Items)
	}
	return total
}

type DeckCard struct {
	Name  string `json:"name"`
	Qty   int    `json:"qty"`
	ID    string `json:"id,omitempty"`
	Image string `json:"image,omitempty"`
}

type CommanderCard struct {
	Name       string   `json:"name"`
	Qty        int      `json:"qty"`
	Components []string `json:"components,omitempty"`
}

type DeckListResult struct {
	Commander     string         `json:"commander"`
	Bracket       string         `json:"bracket"`
	SourceURL     string         `json:"source_url"`
	Cards         []DeckCard     `json:"cards"`
	CommanderCard *CommanderCard `json:"commander_card,omitempty"`
	Error         *ErrorPayload  `json:"error,omitempty"`
}
