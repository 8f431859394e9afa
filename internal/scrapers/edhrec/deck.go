package edhrec

import (
	"regexp"
	"strconv"
	"strings"

	"mightstone-backend/internal/tree"
	"mightstone-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	deckQtyKeys       = []string{"qty", "quantity", "count", "copies", "amount", "q"}
	deckNameKeys      = tree.KeyNamer{"name", "cardName", "card_name", "label", "title"}
	deckContainerHint = []string{"deck", "cards", "average", "mainboard", "board"}
)

type deckEntry struct {
	name      string
	qty       int
	commander bool
}

// ParseDeckWithCommander extracts the deck list from an average deck page
// payload and pulls the commander out of it. Card-like lists are searched
// under deck-ish pageProps keys first, then anywhere in the payload, and
// duplicate names have their quantities summed. The commander is recognized
// by an explicit flag on the entry or by matching one of the faces of name.
func ParseDeckWithCommander(root tree.Node, name string) ([]DeckCard, *CommanderCard) {
	return splitCommander(findDeckEntries(root), name)
}

func findDeckEntries(root tree.Node) []deckEntry {
	props := PageProps(root)

	var sources []tree.Node
	for _, key := range props.Keys() {
		lower := strings.ToLower(key)
		for _, hint := range deckContainerHint {
			if strings.Contains(lower, hint) {
				sources = append(sources, props.Get(key))
				break
			}
		}
	}
	if data := props.Get("pageData"); !data.IsAbsent() {
		sources = append(sources, data)
	}
	sources = append(sources, props, root)

	for _, source := range sources {
		entries := dedupeDeck(normalizeDeckEntries(deepFindCards(source)))
		if len(entries) > 0 {
			return entries
		}
	}
	return nil
}

func cardLike(node tree.Node) bool {
	if node.Text() != "" {
		return true
	}
	if node.Kind() != tree.KindMapping {
		return false
	}
	if _, ok := node.At(tree.Path{"card", "name"}).String(); ok {
		return true
	}
	for _, key := range []string{"name", "cardName", "label", "cardname"} {
		if _, ok := node.Get(key).String(); ok {
			return true
		}
	}
	names := node.Get("names")
	if names.Len() == 0 {
		return false
	}
	for _, n := range names.Items() {
		if _, ok := n.String(); !ok {
			return false
		}
	}
	return true
}

// deepFindCards concatenates every card-like list under root in document order.
func deepFindCards(root tree.Node) []tree.Node {
	matches := tree.Find(root, func(_ tree.Path, node tree.Node) bool {
		if node.Kind() != tree.KindSequence || node.Len() == 0 {
			return false
		}
		for _, item := range node.Items() {
			if !cardLike(item) {
				return false
			}
		}
		return true
	})

	var out []tree.Node
	for _, m := range matches {
		out = append(out, m.Node.Items()...)
	}
	return out
}

func coerceQty(node tree.Node) (int, bool) {
	if n, ok := node.Int(); ok {
		return int(n), true
	}
	text := node.Text()
	if text == "" {
		return 0, false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(text)
	return n, err == nil
}

func normalizeDeckEntry(node tree.Node) (deckEntry, bool) {
	if text := node.Text(); text != "" {
		return deckEntry{name: text, qty: 1}, true
	}
	if node.Kind() != tree.KindMapping {
		return deckEntry{}, false
	}

	card := node.Get("card")
	get := func(key string) tree.Node {
		if card.Kind() == tree.KindMapping {
			if v := card.Get(key); !v.IsAbsent() {
				return v
			}
		}
		return node.Get(key)
	}

	name, ok := deckNameKeys.Name(card)
	if !ok {
		name, ok = deckNameKeys.Name(node)
	}
	if !ok {
		var faces []string
		for _, face := range get("names").Items() {
			if text := face.Text(); text != "" {
				faces = append(faces, text)
			}
		}
		name = strings.Join(faces, " // ")
	}
	if name == "" {
		return deckEntry{}, false
	}

	qty := 1
	for _, key := range deckQtyKeys {
		if n, ok := coerceQty(get(key)); ok {
			qty = n
			break
		}
	}
	if qty < 1 {
		qty = 1
	}

	commander := false
	for _, flag := range []string{"isCommander", "is_commander", "commander"} {
		if b, ok := get(flag).Bool(); ok && b {
			commander = true
		}
	}
	for _, category := range get("categories").Items() {
		if strings.EqualFold(category.Text(), "commander") {
			commander = true
		}
	}
	role := get("role").Text()
	if role == "" {
		role = get("slot").Text()
	}
	if strings.EqualFold(role, "commander") {
		commander = true
	}

	return deckEntry{name: name, qty: qty, commander: commander}, true
}

func normalizeDeckEntries(nodes []tree.Node) []deckEntry {
	var entries []deckEntry
	for _, node := range nodes {
		if entry, ok := normalizeDeckEntry(node); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func dedupeDeck(entries []deckEntry) []deckEntry {
	index := map[string]int{}
	var out []deckEntry
	for _, e := range entries {
		if i, ok := index[e.name]; ok {
			out[i].qty += e.qty
			out[i].commander = out[i].commander || e.commander
			continue
		}
		index[e.name] = len(out)
		out = append(out, e)
	}
	return out
}

func splitCommander(entries []deckEntry, name string) ([]DeckCard, *CommanderCard) {
	full := strings.ToLower(strings.TrimSpace(name))
	faces := map[string]bool{}
	for _, face := range strings.Split(name, "//") {
		if face = strings.TrimSpace(face); face != "" {
			faces[strings.ToLower(face)] = true
		}
	}

	var commander []deckEntry
	cards := []DeckCard{}
	for _, e := range entries {
		lower := strings.ToLower(e.name)
		if e.commander || lower == full || faces[lower] {
			commander = append(commander, e)
			continue
		}
		cards = append(cards, DeckCard{Name: e.name, Qty: e.qty})
	}
	if len(commander) == 0 {
		return cards, nil
	}

	card := &CommanderCard{Name: strings.TrimSpace(name)}
	if card.Name == "" {
		card.Name = commander[0].name
	}
	var components []string
	for _, e := range commander {
		card.Qty += e.qty
		components = append(components, e.name)
	}
	if len(components) > 1 || !strings.EqualFold(card.Name, commander[0].name) {
		card.Components = components
	}
	return cards, card
}

var (
	deckLineRegex   = regexp.MustCompile(`^\s*(\d{1,2})\s+([^/\r\n]+?)\s*$`)
	setSuffixRegex  = regexp.MustCompile(`\s+\[[A-Z0-9]{2,5}\]$`)
	fullDeckMinimum = 60
)

// ParseDeckText parses exported deck text, one "<qty> <name>" per line.
// "Commander (...)" headings and set suffixes like " [CMM]" are dropped.
func ParseDeckText(text string) []DeckCard {
	var cards []DeckCard
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(strings.ToLower(line), "commander (") {
			continue
		}
		match := deckLineRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		qty, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		name := strings.TrimSpace(setSuffixRegex.ReplaceAllString(strings.TrimSpace(match[2]), ""))
		cards = append(cards, DeckCard{Name: name, Qty: qty})
	}
	return cards
}

// ExtractDeckText finds a deck list in the text blocks of an HTML page, for
// pages without a usable __NEXT_DATA__ payload. The first block that looks
// like a full deck wins, otherwise the longest partial list.
func ExtractDeckText(doc *goquery.Document) []DeckCard {
	var best []DeckCard
	for _, element := range []string{"pre", "code", "textarea"} {
		for _, node := range doc.Find(element).Nodes {
			text := strings.TrimSpace(htmlutil.GetText(node))
			if len(text) <= 100 {
				continue
			}
			cards := ParseDeckText(text)
			if len(cards) >= fullDeckMinimum {
				return cards
			}
			if len(cards) > len(best) {
				best = cards
			}
		}
	}

	if body := doc.Find("body").Get(0); body != nil {
		cards := ParseDeckText(htmlutil.GetTextLines(body))
		if len(cards) >= fullDeckMinimum {
			return cards
		}
	}
	return best
}
