package edhrec

import (
	"strings"

	"mightstone-backend/internal/tree"
	"mightstone-backend/lib/textutil"
)

const (
	SectionHighSynergy  = "High Synergy Cards"
	SectionTopCards     = "Top Cards"
	SectionGameChangers = "Game Changers"
)

var sectionKeyMap = map[string]string{
	"highsynergy":      SectionHighSynergy,
	"highsynergycards": SectionHighSynergy,
	"synergycards":     SectionHighSynergy,
	"topcards":         SectionTopCards,
	"popularcards":     SectionTopCards,
	"gamechangers":     SectionGameChangers,
	"gamechanger":      SectionGameChangers,
}

type Section struct {
	Header string   `json:"header"`
	Cards  []string `json:"cards"`
}

// ExtractSections collects the card names listed under section-named keys
// ("highsynergycards", "top_cards", "gameChangers", ...) anywhere in the
// payload. All three sections are always returned, in a fixed order.
func ExtractSections(root tree.Node) []Section {
	sections := []Section{
		{Header: SectionHighSynergy, Cards: []string{}},
		{Header: SectionTopCards, Cards: []string{}},
		{Header: SectionGameChangers, Cards: []string{}},
	}
	seen := make([]map[string]struct{}, len(sections))
	for i := range seen {
		seen[i] = map[string]struct{}{}
	}

	tree.Walk(root, func(path tree.Path, node tree.Node) bool {
		header, ok := sectionKeyMap[textutil.LettersOnly(path.Last())]
		if !ok || node.Kind() == tree.KindScalar {
			return true
		}
		for i := range sections {
			if sections[i].Header != header {
				continue
			}
			for _, name := range sectionCardNames(node) {
				key := strings.ToLower(name)
				if _, dup := seen[i][key]; dup {
					continue
				}
				seen[i][key] = struct{}{}
				sections[i].Cards = append(sections[i].Cards, name)
			}
		}
		return true
	})
	return sections
}

var sectionNameKeys = tree.KeyNamer{"name", "cardName", "label", "title"}

func sectionCardNames(node tree.Node) []string {
	var names []string
	var collect func(n tree.Node)
	collect = func(n tree.Node) {
		switch n.Kind() {
		case tree.KindMapping:
			if name, ok := sectionNameKeys.Name(n); ok {
				names = append(names, textutil.CleanText(name))
			} else if name, ok := CardName(n); ok {
				names = append(names, name)
			}
			for _, key := range n.Keys() {
				switch key {
				case "name", "cardName", "label", "title", "names":
					continue
				}
				collect(n.Get(key))
			}
		case tree.KindSequence:
			allStrings := true
			for _, item := range n.Items() {
				if item.Text() == "" {
					allStrings = false
					break
				}
			}
			if allStrings {
				for _, item := range n.Items() {
					names = append(names, textutil.CleanText(item.Text()))
				}
				return
			}
			for _, item := range n.Items() {
				collect(item)
			}
		}
	}
	collect(node)
	return names
}
