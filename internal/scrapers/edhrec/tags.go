package edhrec

import (
	"regexp"
	"strings"

	"mightstone-backend/internal/tree"
	"mightstone-backend/lib/textutil"
)

// TagTier extracts tags from one generation of the upstream page layout.
// Tiers do not filter or deduplicate, the TagExtractor does that for all of
// them.
type TagTier interface {
	Name() string
	Extract(root tree.Node) []TagRecord
}

// DefaultTagTiers returns the known layouts, newest first.
func DefaultTagTiers() []TagTier {
	return []TagTier{panelsTier{}, tagCloudTier{}}
}

// TagExtractor runs tiers in order, the first tier that yields at least
// one acceptable tag wins.
type TagExtractor struct {
	tiers  []TagTier
	filter *TagFilter
}

// NewTagExtractor creates an extractor, tiers defaults to DefaultTagTiers.
func NewTagExtractor(filter *TagFilter, tiers ...TagTier) TagExtractor {
	if len(tiers) == 0 {
		tiers = DefaultTagTiers()
	}
	return TagExtractor{tiers: tiers, filter: filter}
}

func (e TagExtractor) Extract(root tree.Node) []TagRecord {
	records, _ := e.ExtractWithTier(root)
	return records
}

// ExtractWithTier is Extract that also reports the name of the tier that
// matched, "" when none did.
func (e TagExtractor) ExtractWithTier(root tree.Node) ([]TagRecord, string) {
	tiers := e.tiers
	if len(tiers) == 0 {
		tiers = DefaultTagTiers()
	}
	for _, tier := range tiers {
		records := e.finish(tier.Extract(root))
		if len(records) > 0 {
			return records, tier.Name()
		}
	}
	return []TagRecord{}, ""
}

func (e TagExtractor) Names(root tree.Node) []string {
	return TagNames(e.Extract(root))
}

// finish cleans names, drops noise and keeps the first occurrence of every
// exact name together with its count.
func (e TagExtractor) finish(raw []TagRecord) []TagRecord {
	out := []TagRecord{}
	seen := map[string]struct{}{}
	for _, r := range raw {
		name, ok := e.filter.Clean(r.Name)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, TagRecord{Name: name, DeckCount: r.DeckCount})
	}
	return out
}

var (
	tagHrefRegex = regexp.MustCompile(`(?i)/(?:tags|themes)/[a-z0-9\-]+`)

	headerKeys = []string{"header", "section", "title"}
	valueKeys  = []string{"value", "label", "name"}
)

func firstText(node tree.Node, keys []string) string {
	for _, key := range keys {
		if text := node.Get(key).Text(); text != "" {
			return text
		}
	}
	return ""
}

// panelsTier reads the current layout, where the navigation panel is a flat
// list of link entries split into sections by header entries, and the deck
// counts live in a separate "taglinks" list.
type panelsTier struct{}

func (panelsTier) Name() string {
	return "panels"
}

func (panelsTier) Extract(root tree.Node) []TagRecord {
	panels := locatePanels(root)
	if panels.IsAbsent() {
		return nil
	}
	links := panels.GetFold("links")
	taglinks := panels.GetFold("taglinks")

	names := tagsRun(links)
	if len(names) == 0 {
		names = tagHrefValues(links)
	}
	if len(names) == 0 {
		for _, entry := range taglinks.Items() {
			if v := firstText(entry, valueKeys); v != "" {
				names = append(names, v)
			}
		}
	}

	counts := map[string]*int{}
	for _, entry := range taglinks.Items() {
		key := textutil.CleanText(firstText(entry, valueKeys))
		if key == "" {
			continue
		}
		if _, exists := counts[key]; !exists {
			counts[key] = countFrom(entry)
		}
	}

	records := make([]TagRecord, len(names))
	for i, name := range names {
		records[i] = TagRecord{Name: name, DeckCount: counts[textutil.CleanText(name)]}
	}
	return records
}

func locatePanels(root tree.Node) tree.Node {
	if m, ok := tree.FindKey(root, "panels"); ok && m.Node.Kind() == tree.KindMapping {
		return m.Node
	}
	matches := tree.Find(root, func(_ tree.Path, n tree.Node) bool {
		return n.Get("links").Kind() == tree.KindSequence
	})
	if len(matches) > 0 {
		return matches[0].Node
	}
	return tree.Node{}
}

// tagsRun collects the values of the entries in the "Tags" section: from the
// entry headed "Tags" up to the next entry with a non-empty header.
func tagsRun(links tree.Node) []string {
	var names []string
	inRun := false
	for _, entry := range links.Items() {
		header := firstText(entry, headerKeys)
		if header != "" {
			if inRun {
				break
			}
			if strings.EqualFold(header, "Tags") {
				inRun = true
				names = append(names, itemValues(entry)...)
			}
			continue
		}
		if !inRun {
			continue
		}
		if v := firstText(entry, valueKeys); v != "" {
			names = append(names, v)
		}
		names = append(names, itemValues(entry)...)
	}
	return names
}

func itemValues(entry tree.Node) []string {
	var values []string
	for _, item := range entry.Get("items").Items() {
		if v := firstText(item, valueKeys); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func tagHref(entry tree.Node) bool {
	for _, key := range []string{"href", "url", "slug", "path"} {
		if tagHrefRegex.MatchString(entry.Get(key).Text()) {
			return true
		}
	}
	return false
}

// tagHrefValues collects link entries that point at a tag page.
func tagHrefValues(links tree.Node) []string {
	var names []string
	for _, entry := range links.Items() {
		if tagHref(entry) {
			if v := firstText(entry, valueKeys); v != "" {
				names = append(names, v)
			}
		}
		for _, item := range entry.Get("items").Items() {
			if !tagHref(item) {
				continue
			}
			if v := firstText(item, valueKeys); v != "" {
				names = append(names, v)
			}
		}
	}
	return names
}

// tagCloudTier reads the previous layout: a "themes" list on the commander
// and a "tagCloud" collection nested under its metadata.
type tagCloudTier struct{}

func (tagCloudTier) Name() string {
	return "tag-cloud"
}

var (
	tagContainerKeys = map[string]bool{
		"tags": true, "themes": true, "items": true, "list": true, "entries": true,
		"values": true, "chips": true, "tag": true, "tagitem": true,
	}
	tagStructuralKeys = map[string]bool{
		"sections": true, "groups": true, "tabgroups": true, "tabs": true, "taggroups": true,
		"collections": true, "edges": true, "nodes": true, "node": true,
	}
	tagNameKeys = []string{"name", "label", "title", "displayName", "theme"}
)

func (tagCloudTier) Extract(root tree.Node) []TagRecord {
	commander := locateCommander(root)

	var records []TagRecord
	records = collectTagEntries(records, commander.Get("themes"), true)

	cloud := commander.Get("metadata").GetAny("tagCloud", "tag_cloud")
	if cloud.IsAbsent() {
		if m, ok := tree.FindKey(commander, "tagCloud", "tag_cloud"); ok {
			cloud = m.Node
		}
	}
	return collectTagEntries(records, cloud, false)
}

func locateCommander(root tree.Node) tree.Node {
	if commander := root.At(tree.Path{"props", "pageProps", "commander"}); commander.Kind() == tree.KindMapping {
		return commander
	}
	if m, ok := tree.FindKey(root, "commander"); ok && m.Node.Kind() == tree.KindMapping {
		return m.Node
	}
	return root
}

// collectTagEntries walks a tag cloud. Objects are read as tags only when
// asTag is set, structural keys are descended with asTag cleared so their
// labels ("Themes", "Kindred", ...) are not mistaken for tags.
func collectTagEntries(out []TagRecord, node tree.Node, asTag bool) []TagRecord {
	switch node.Kind() {
	case tree.KindScalar:
		if !asTag {
			return out
		}
		if text, ok := node.String(); ok {
			name, count := SplitNameAndCount(textutil.CleanText(text))
			if name != "" {
				out = append(out, TagRecord{Name: name, DeckCount: count})
			}
		}
	case tree.KindSequence:
		for _, item := range node.Items() {
			out = collectTagEntries(out, item, asTag)
		}
	case tree.KindMapping:
		var nested []tree.Node
		if asTag {
			if name := firstText(node, tagNameKeys); name != "" {
				out = append(out, TagRecord{Name: name, DeckCount: countFrom(node)})
			} else if theme := node.Get("theme"); theme.Kind() == tree.KindMapping {
				nested = append(nested, theme)
			}
		}
		for _, key := range node.Keys() {
			lower := strings.ToLower(key)
			switch {
			case tagContainerKeys[lower]:
				nested = append(nested, node.Get(key))
			case tagStructuralKeys[lower]:
				out = collectTagEntries(out, node.Get(key), false)
			}
		}
		for _, candidate := range nested {
			out = collectTagEntries(out, candidate, true)
		}
	}
	return out
}
