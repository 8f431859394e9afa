package edhrec

import (
	"regexp"
	"strings"

	"mightstone-backend/internal/tree"

	"github.com/PuerkitoBio/goquery"
)

var buildIDRegex = regexp.MustCompile(`"buildId"\s*:\s*"([^"]+)"`)

// ExtractNextData decodes the Next.js page payload embedded in
// script#__NEXT_DATA__. ok is false when the script is missing or does not
// hold valid JSON.
func ExtractNextData(doc *goquery.Document) (tree.Node, bool) {
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return tree.Node{}, false
	}
	text := strings.TrimSpace(script.Text())
	if text == "" {
		return tree.Node{}, false
	}
	root, err := tree.Parse([]byte(text))
	if err != nil {
		return tree.Node{}, false
	}
	return root, true
}

// ExtractBuildID returns the Next.js build id, "" when absent. The build id
// addresses the /_next/data/<id>/... JSON routes.
func ExtractBuildID(html string) string {
	match := buildIDRegex.FindStringSubmatch(html)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// PageProps returns props.pageProps, or root when the payload is not
// wrapped the Next.js way (the JSON API serves the page data bare).
func PageProps(root tree.Node) tree.Node {
	if props := root.At(tree.Path{"props", "pageProps"}); props.Kind() == tree.KindMapping {
		return props
	}
	return root
}

// NextData decodes the page's __NEXT_DATA__ payload. A page without one is
// an upstream error since every EDHREC page embeds it.
func (p Page) NextData() (tree.Node, *goquery.Document, error) {
	doc, err := p.Document()
	if err != nil {
		return tree.Node{}, nil, err
	}
	root, ok := ExtractNextData(doc)
	if !ok {
		return tree.Node{}, doc, NewUpstreamError(p.URL, p.Status, "Could not find __NEXT_DATA__ on EDHREC page", nil)
	}
	return root, doc, nil
}
