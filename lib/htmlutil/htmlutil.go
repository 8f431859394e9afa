package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("mightstone.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer, "")
	return buffer.String()
}

// GetTextLines is GetText with every text node on its own line, blank
// nodes are skipped.
func GetTextLines(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer, "\n")
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer, sep string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		if sep == "" {
			buffer.WriteString(node.Data)
			return
		}
		text := strings.TrimSpace(node.Data)
		if text == "" {
			return
		}
		if buffer.Len() > 0 {
			buffer.WriteString(sep)
		}
		buffer.WriteString(text)
		return
	}
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") && sep != "" {
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer, sep)
		child = child.NextSibling
	}
}

type Anchor struct {
	Name string
	Href string
	// Path is the path component of Href, "" if Href does not parse.
	Path string
	Node *html.Node
}

// Attr returns the value of an attribute on the anchor element.
func (a Anchor) Attr(key string) (string, bool) {
	return GetAttr(a.Node, key)
}

func GetAttr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// NormalizeText cleans the text content of an element the same way anchor
// names are cleaned.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href, _ := GetAttr(n, "href")

		path := ""
		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
		} else {
			path = link.Path
		}

		name := NormalizeText(GetText(n))
		anchors = append(anchors, Anchor{
			Name: name,
			Href: href,
			Path: path,
			Node: n,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", href),
		))
	}

	return anchors
}

// HasClassPrefix reports whether any class of the first element in sel
// starts with prefix. CSS modules append a hash to class names, so
// "NavigationPanel_tags__x1y2" matches prefix "NavigationPanel_tags__".
func HasClassPrefix(sel *goquery.Selection, prefix string) bool {
	classes, ok := sel.Attr("class")
	if !ok {
		return false
	}
	for _, class := range strings.Fields(classes) {
		if strings.HasPrefix(class, prefix) {
			return true
		}
	}
	return false
}

// FindClassPrefix returns the descendants of sel matching element that
// carry a class starting with prefix.
func FindClassPrefix(sel *goquery.Selection, element, prefix string) *goquery.Selection {
	return sel.Find(element + `[class*="` + prefix + `"]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return HasClassPrefix(s, prefix)
	})
}
