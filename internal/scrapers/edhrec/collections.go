package edhrec

import (
	"strings"

	"mightstone-backend/internal/tree"
	"mightstone-backend/lib/textutil"

	"github.com/google/uuid"
)

const DefaultCollectionHeader = "Cards"

var (
	cardNameKeys         = tree.KeyNamer{"name", "cardName", "card_name", "label"}
	collectionHeaderKeys = []string{"header", "tag", "title"}
)

// CardName names card-like objects: a name key, a nested card.name or a
// list of face names joined with " // ".
func CardName(node tree.Node) (string, bool) {
	if name, ok := cardNameKeys.Name(node); ok {
		return textutil.CollapseSpace(name), true
	}
	if name := node.At(tree.Path{"card", "name"}).Text(); name != "" {
		return textutil.CollapseSpace(name), true
	}
	var faces []string
	for _, face := range node.Get("names").Items() {
		if text := face.Text(); text != "" {
			faces = append(faces, text)
		}
	}
	if len(faces) > 0 {
		return strings.Join(faces, " // "), true
	}
	return "", false
}

// Normalizer turns an arbitrary page payload into a NormalizedPage.
type Normalizer struct {
	DefaultHeader string
}

func (n Normalizer) Normalize(root tree.Node) NormalizedPage {
	defaultHeader := n.DefaultHeader
	if defaultHeader == "" {
		defaultHeader = DefaultCollectionHeader
	}

	payload := locatePagePayload(root)
	page := NormalizedPage{
		Header:      firstText(payload, []string{"header", "title"}),
		Description: payload.Get("description").Text(),
		Container:   Container{Collections: []Collection{}},
	}

	for _, match := range tree.FindNamedArrays(root, tree.NamerFunc(CardName)) {
		header := nearestHeader(root, match.Path, defaultHeader)
		items := make([]CollectionItem, 0, match.Node.Len())
		for _, element := range match.Node.Items() {
			items = append(items, collectionItem(element))
		}

		collections := page.Container.Collections
		if last := len(collections) - 1; last >= 0 && collections[last].Header == header {
			collections[last].Items = append(collections[last].Items, items...)
			continue
		}
		page.Container.Collections = append(collections, Collection{Header: header, Items: items})
	}
	return page
}

// locatePagePayload returns the first mapping holding a "container", which
// is where header and description sit in every layout, or root itself.
func locatePagePayload(root tree.Node) tree.Node {
	matches := tree.Find(root, func(_ tree.Path, node tree.Node) bool {
		return node.Kind() == tree.KindMapping && !node.Get("container").IsAbsent()
	})
	if len(matches) > 0 {
		return matches[0].Node
	}
	return root
}

func isPagePayload(node tree.Node) bool {
	return !node.Get("container").IsAbsent() || !node.Get("description").IsAbsent()
}

// nearestHeader searches the ancestors of path, nearest first, for a header
// label. The search stops at the page payload so the page title is never
// used as a collection header.
func nearestHeader(root tree.Node, path tree.Path, fallback string) string {
	ancestors := tree.Ancestors(root, path)
	for i := len(ancestors) - 1; i >= 0; i-- {
		ancestor := ancestors[i]
		if ancestor.Kind() != tree.KindMapping {
			continue
		}
		if isPagePayload(ancestor) {
			break
		}
		if header := textutil.CleanText(firstText(ancestor, collectionHeaderKeys)); header != "" {
			return header
		}
	}
	return fallback
}

func collectionItem(node tree.Node) CollectionItem {
	name, _ := CardName(node)
	item := CollectionItem{Name: name}

	card := node.Get("card")
	lookup := func(keys ...string) tree.Node {
		if v := node.GetAny(keys...); !v.IsAbsent() {
			return v
		}
		return card.GetAny(keys...)
	}

	if id := lookup("id", "scryfall_id", "scryfallId").Text(); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			item.ID = id
		}
	}
	if image := lookup("image", "image_url").Text(); strings.HasPrefix(image, "http") {
		item.Image = image
	}
	if synergy, ok := lookup("synergy").Number(); ok {
		item.Synergy = &synergy
	}
	if decks, ok := lookup("num_decks", "numDecks", "inclusion").Int(); ok {
		n := int(decks)
		item.NumDecks = &n
	}
	if potential, ok := lookup("potential_decks", "potentialDecks").Int(); ok {
		n := int(potential)
		item.PotentialDecks = &n
	}
	return item
}
