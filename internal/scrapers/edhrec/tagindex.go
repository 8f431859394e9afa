package edhrec

import (
	"context"
	"regexp"

	"mightstone-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var tagIndexPathRegex = regexp.MustCompile(`^/tags/([a-z0-9\-]+)(?:/([a-z0-9\-]+))?/?$`)

// TagIndexEntry is one theme linked from the /tags listing. Identity is the
// color slug when the link is scoped to one.
type TagIndexEntry struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	DeckCount *int   `json:"deck_count"`
	Identity  string `json:"identity,omitempty"`
}

// ParseTagIndex lists every tag page linked from doc in document order, one
// entry per slug and identity pair. Links whose second segment is not a
// color identity are skipped.
func (e TagExtractor) ParseTagIndex(ctx context.Context, doc *goquery.Document) []TagIndexEntry {
	entries := []TagIndexEntry{}
	seen := map[string]bool{}
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		match := tagIndexPathRegex.FindStringSubmatch(anchor.Path)
		if match == nil {
			continue
		}

		entry := TagIndexEntry{Slug: match[1]}
		if match[2] != "" {
			identity, err := CanonicalizeIdentity(match[2])
			if err != nil {
				continue
			}
			entry.Identity = identity.Slug
		}

		key := entry.Slug + "/" + entry.Identity
		if seen[key] {
			continue
		}

		name, count := anchorNameAndCount(anchor)
		clean, ok := e.filter.Clean(name)
		if !ok {
			continue
		}
		entry.Name = clean
		entry.DeckCount = count
		seen[key] = true
		entries = append(entries, entry)
	}
	return entries
}
