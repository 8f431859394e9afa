package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/tree"

	"github.com/PuerkitoBio/goquery"
)

const topTagCount = 10

// commanderPage is a commander listing read either from the JSON API or
// from the HTML page's __NEXT_DATA__.
type commanderPage struct {
	slug string
	path string
	url  string
	root tree.Node
	// doc is nil when the page came from the JSON API.
	doc *goquery.Document
}

func parseBudget(budget string) (string, error) {
	budget = strings.ToLower(strings.TrimSpace(budget))
	switch budget {
	case "", string(edhrec.ModifierBudget), string(edhrec.ModifierExpensive):
		return budget, nil
	}
	return "", edhrec.NewValidationError("BUDGET_UNSUPPORTED", fmt.Sprintf("Budget '%s' is not supported, use 'budget' or 'expensive'", budget))
}

// fetchPageData reads a page from the JSON API and falls back to the HTML
// page when the JSON route fails.
func (s Service) fetchPageData(ctx context.Context, jsonPath, htmlPath string) (tree.Node, *goquery.Document, string, error) {
	root, page, jsonErr := s.edhrec.FetchJSON(ctx, jsonPath)
	if jsonErr == nil {
		return root, nil, page.URL, nil
	}
	s.tel.ReportDebug(report_page_html_fallback, jsonPath, jsonErr)

	page, err := s.edhrec.FetchPage(ctx, htmlPath)
	if err != nil {
		// the JSON failure is the more telling one when it was not a 404
		if edhrec.Classify(jsonErr) == edhrec.KindUpstream && errors.Is(err, edhrec.ErrNotFound) {
			return tree.Node{}, nil, "", jsonErr
		}
		return tree.Node{}, nil, "", err
	}
	root, doc, err := page.NextData()
	if err != nil {
		return tree.Node{}, doc, page.URL, err
	}
	return edhrec.PageProps(root), doc, page.URL, nil
}

// fetchCommander tries every slug candidate of name in order, a 404 moves
// on to the next candidate.
func (s Service) fetchCommander(ctx context.Context, name, suffix string) (commanderPage, error) {
	slugs := edhrec.SlugCandidates(name)
	if len(slugs) == 0 {
		return commanderPage{}, edhrec.NewValidationError("NAME_REQUIRED", fmt.Sprintf("Commander name '%s' has no usable characters", name))
	}

	var attempted []string
	var upstream error
	for _, slug := range slugs {
		path := "/commanders/" + slug + suffix
		root, doc, url, err := s.fetchPageData(ctx, "/pages"+path+".json", path)
		if err == nil {
			return commanderPage{slug: slug, path: path, url: url, root: root, doc: doc}, nil
		}
		s.tel.ReportDebug(report_commander_fetch, slug, err)
		attempted = append(attempted, s.edhrec.URL(path))
		if !errors.Is(err, edhrec.ErrNotFound) && upstream == nil {
			upstream = err
		}
	}
	if upstream != nil {
		return commanderPage{}, upstream
	}

	e := edhrec.NewNotFoundError("", fmt.Sprintf("Commander '%s' was not found on EDHREC", name))
	e.Attempted = attempted
	e.Details = "Check spelling or use the front face name"
	if len(attempted) > 0 {
		e.URL = attempted[0]
	}
	return commanderPage{}, e
}

// commanderTags runs the structured tiers and falls back to the rendered
// HTML, fetching it when the page came from the JSON API.
func (s Service) commanderTags(ctx context.Context, page commanderPage) []edhrec.TagRecord {
	records := s.tags.Extract(page.root)
	if len(records) > 0 {
		return records
	}

	doc := page.doc
	if doc == nil {
		html, err := s.edhrec.FetchPage(ctx, page.path)
		if err != nil {
			s.tel.ReportDebug(report_commander_html_tags, page.path, err)
			return records
		}
		root, parsed, err := html.NextData()
		if err == nil {
			if records = s.tags.Extract(root); len(records) > 0 {
				return records
			}
		}
		if parsed == nil {
			return records
		}
		doc = parsed
	}
	return s.tags.ExtractHTML(ctx, doc)
}

type CommanderTags struct {
	Commander string             `json:"commander"`
	Slug      string             `json:"slug"`
	SourceURL string             `json:"source_url"`
	Tags      []string           `json:"tags"`
	Records   []edhrec.TagRecord `json:"records"`
}

func (s Service) CommanderTags(ctx context.Context, name string) (CommanderTags, error) {
	name, err := requireName(name, "NAME_REQUIRED", "Commander name is required")
	if err != nil {
		return CommanderTags{}, err
	}
	page, err := s.fetchCommander(ctx, name, "")
	if err != nil {
		return CommanderTags{}, err
	}
	records := s.commanderTags(ctx, page)
	return CommanderTags{
		Commander: name,
		Slug:      page.slug,
		SourceURL: page.url,
		Tags:      edhrec.TagNames(records),
		Records:   records,
	}, nil
}

type SummaryCard struct {
	edhrec.CollectionItem
	SynergyPercent   *float64 `json:"synergy_percent,omitempty"`
	InclusionPercent *float64 `json:"inclusion_percent,omitempty"`
}

type SummaryCategory struct {
	Header string        `json:"header"`
	Cards  []SummaryCard `json:"cards"`
}

type CommanderSummary struct {
	Commander   string             `json:"commander"`
	Slug        string             `json:"slug"`
	Budget      string             `json:"budget,omitempty"`
	SourceURL   string             `json:"source_url"`
	Header      string             `json:"header,omitempty"`
	Description string             `json:"description,omitempty"`
	Tags        []edhrec.TagRecord `json:"tags"`
	TopTags     []edhrec.TagRecord `json:"top_tags"`
	Categories  []SummaryCategory  `json:"categories"`
	Sections    []edhrec.Section   `json:"sections"`
}

func (s Service) CommanderSummary(ctx context.Context, name, budget string) (CommanderSummary, error) {
	name, err := requireName(name, "NAME_REQUIRED", "Commander name is required")
	if err != nil {
		return CommanderSummary{}, err
	}
	budget, err = parseBudget(budget)
	if err != nil {
		return CommanderSummary{}, err
	}
	suffix := ""
	if budget != "" {
		suffix = "/" + budget
	}

	page, err := s.fetchCommander(ctx, name, suffix)
	if err != nil {
		return CommanderSummary{}, err
	}

	tags := s.commanderTags(ctx, page)
	normalized := s.normalizer.Normalize(page.root)

	categories := make([]SummaryCategory, 0, len(normalized.Container.Collections))
	for _, collection := range normalized.Container.Collections {
		cards := make([]SummaryCard, len(collection.Items))
		for i, item := range collection.Items {
			cards[i] = summaryCard(item)
		}
		categories = append(categories, SummaryCategory{Header: collection.Header, Cards: cards})
	}

	return CommanderSummary{
		Commander:   name,
		Slug:        page.slug,
		Budget:      budget,
		SourceURL:   page.url,
		Header:      normalized.Header,
		Description: normalized.Description,
		Tags:        tags,
		TopTags:     TopTags(tags, topTagCount),
		Categories:  categories,
		Sections:    edhrec.ExtractSections(page.root),
	}, nil
}

// TopTags returns up to n tags that carry a deck count, most used first.
// Ties keep their original order.
func TopTags(tags []edhrec.TagRecord, n int) []edhrec.TagRecord {
	counted := []edhrec.TagRecord{}
	for _, t := range tags {
		if t.DeckCount != nil {
			counted = append(counted, t)
		}
	}
	sort.SliceStable(counted, func(i, j int) bool {
		return *counted[i].DeckCount > *counted[j].DeckCount
	})
	if len(counted) > n {
		counted = counted[:n]
	}
	return counted
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func summaryCard(item edhrec.CollectionItem) SummaryCard {
	card := SummaryCard{CollectionItem: item}
	if item.Synergy != nil {
		synergy := round2(*item.Synergy * 100)
		card.SynergyPercent = &synergy
	}
	if item.NumDecks != nil && item.PotentialDecks != nil && *item.PotentialDecks > 0 {
		inclusion := round2(float64(*item.NumDecks) / float64(*item.PotentialDecks) * 100)
		card.InclusionPercent = &inclusion
	}
	return card
}
