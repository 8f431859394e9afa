package edhrec

import (
	"context"
	"regexp"
	"strings"

	"mightstone-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagLinkRegex = regexp.MustCompile(`(?i)/(?:tags|themes)/[a-z0-9\-]+(?:/[a-z0-9\-]+)?`)
	headingTags  = "h1, h2, h3, h4, h5, h6"
	countAttrs   = []string{"data-tag-count", "data-count", "data-deck-count"}
)

// ExtractHTML reads tags from rendered commander HTML, for pages whose
// __NEXT_DATA__ carries no recognizable tag data. The navigation panel is
// tried first, then the section under a "Tags" heading, then every anchor
// linking to a tag page.
func (e TagExtractor) ExtractHTML(ctx context.Context, doc *goquery.Document) []TagRecord {
	tiers := []func(context.Context, *goquery.Document) []TagRecord{
		navigationPanelTags,
		tagsHeadingSection,
		tagAnchors,
	}
	for _, tier := range tiers {
		records := e.finish(tier(ctx, doc))
		if len(records) > 0 {
			return records
		}
	}
	return []TagRecord{}
}

func navigationPanelTags(ctx context.Context, doc *goquery.Document) []TagRecord {
	panel := htmlutil.FindClassPrefix(doc.Selection, "div", "NavigationPanel_tags__").First()
	if panel.Length() == 0 {
		return nil
	}

	var records []TagRecord
	panel.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if !tagLinkRegex.MatchString(href) {
			return
		}

		source := htmlutil.FindClassPrefix(anchor, "span", "NavigationPanel_label__").First()
		if source.Length() == 0 {
			source = anchor
		}
		name, count := SplitNameAndCount(htmlutil.NormalizeText(source.Text()))

		badge := anchor.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return htmlutil.HasClassPrefix(s, "badge") || htmlutil.HasClassPrefix(s, "NavigationPanel_count__")
		}).First()
		if badge.Length() > 0 {
			if parsed, ok := ParseCount(badge.Text()); ok {
				count = &parsed
			}
		}
		records = append(records, TagRecord{Name: name, DeckCount: count})
	})
	return records
}

func tagsHeadingSection(ctx context.Context, doc *goquery.Document) []TagRecord {
	heading := doc.Find(headingTags).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(strings.TrimSpace(s.Text()), "tags")
	}).First()
	if heading.Length() == 0 {
		return nil
	}

	var records []TagRecord
	for sibling := heading.Next(); sibling.Length() > 0; sibling = sibling.Next() {
		if sibling.Is(headingTags) {
			break
		}
		records = append(records, anchorRecords(ctx, sibling.Find("a[href]").AddSelection(sibling.Filter("a[href]")))...)
	}
	if len(records) == 0 {
		records = anchorRecords(ctx, heading.Parent().Find("a[href]"))
	}
	return records
}

func tagAnchors(ctx context.Context, doc *goquery.Document) []TagRecord {
	return anchorRecords(ctx, doc.Find("a[href]"))
}

func anchorRecords(ctx context.Context, sel *goquery.Selection) []TagRecord {
	var records []TagRecord
	for _, anchor := range htmlutil.GetAnchors(ctx, sel) {
		if !tagLinkRegex.MatchString(anchor.Href) {
			continue
		}
		name, count := anchorNameAndCount(anchor)
		records = append(records, TagRecord{Name: name, DeckCount: count})
	}
	return records
}

// anchorNameAndCount reads a count from the data attributes, then from child
// elements, then from the anchor text itself.
func anchorNameAndCount(anchor htmlutil.Anchor) (string, *int) {
	var count *int
	for _, attr := range countAttrs {
		if value, ok := anchor.Attr(attr); ok {
			if parsed, ok := ParseCount(value); ok {
				count = &parsed
				break
			}
		}
	}
	if count == nil {
		goquery.NewDocumentFromNode(anchor.Node).Find("span, div").EachWithBreak(func(_ int, child *goquery.Selection) bool {
			_, count = SplitNameAndCount(htmlutil.NormalizeText(child.Text()))
			return count == nil
		})
	}

	name, inline := SplitNameAndCount(anchor.Name)
	if count == nil {
		count = inline
	}
	return name, count
}
