package service

import (
	"context"
	"strings"

	"mightstone-backend/internal/components/assert"
	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/internal/hydrator"
	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/scrapers/scryfall"
	"mightstone-backend/internal/tree"
)

const (
	report_commander_fetch     = "commander.fetch"
	report_commander_html_tags = "commander.html-tags"
	report_page_html_fallback  = "page.html-fallback"
	report_average_deck_parse  = "average-deck.parse"
	report_hydrate_partial     = "hydrate.partial"
	report_search_cards        = "search.cards"
	report_tag_index_fetch     = "tag-index.fetch"
)

// EDHREC is the upstream the service reads listings from.
//
// note: fault injection point
type EDHREC interface {
	edhrec.PageFetcher
	FetchJSON(ctx context.Context, path string) (tree.Node, edhrec.Page, error)
}

// CardSearch is the Scryfall full text search.
type CardSearch interface {
	Search(ctx context.Context, query string, limit int) ([]scryfall.Card, error)
}

type serviceConfig struct {
	tel       telemetry.API
	filter    *edhrec.TagFilter
	hydration hydrator.Options
}

type Option func(cfg *serviceConfig)

func WithTelemetry(tel telemetry.API) Option {
	return func(cfg *serviceConfig) {
		cfg.tel = tel
	}
}

// WithTagFilter sets the denylist shared with the config watcher.
func WithTagFilter(filter *edhrec.TagFilter) Option {
	return func(cfg *serviceConfig) {
		cfg.filter = filter
	}
}

// WithHydrationDefaults sets the item budget, lookup timeout and image size
// used when a request does not override them.
func WithHydrationDefaults(opts hydrator.Options) Option {
	return func(cfg *serviceConfig) {
		cfg.hydration = opts
	}
}

type Service struct {
	edhrec     EDHREC
	cards      CardSearch
	hydrator   hydrator.Hydrator
	resolver   edhrec.Resolver
	tags       edhrec.TagExtractor
	normalizer edhrec.Normalizer
	hydration  hydrator.Options
	tel        telemetry.API
}

func New(upstream EDHREC, cards CardSearch, hyd hydrator.Hydrator, options ...Option) Service {
	assert.NotNil(upstream)
	assert.NotNil(cards)

	cfg := serviceConfig{tel: telemetry.SlogAPI{}}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.hydration.ImageSize == "" {
		cfg.hydration.ImageSize = scryfall.ImageNormal
	}

	return Service{
		edhrec:     upstream,
		cards:      cards,
		hydrator:   hyd,
		resolver:   edhrec.NewResolver(upstream, cfg.tel),
		tags:       edhrec.NewTagExtractor(cfg.filter),
		normalizer: edhrec.Normalizer{},
		hydration:  cfg.hydration,
		tel:        telemetry.NewScopedAPI("service", cfg.tel),
	}
}

// HydrateOptions are the per request hydration switches.
type HydrateOptions struct {
	Hydrate       bool
	IncludeImages bool
	// ImageSize overrides the configured size when set.
	ImageSize scryfall.ImageSize
}

func (s Service) hydrateOptions(req HydrateOptions) hydrator.Options {
	opts := s.hydration
	opts.IncludeImages = req.IncludeImages
	if req.ImageSize != "" {
		opts.ImageSize = req.ImageSize
	}
	return opts
}

func (s Service) reportHydration(subject string, report hydrator.Report) {
	if len(report.Failures) > 0 {
		s.tel.ReportDebug(report_hydrate_partial, subject, len(report.Failures), report.Requested)
	}
}

// Brackets lists every accepted bracket identifier.
func (s Service) Brackets() []string {
	return edhrec.AllowedBrackets()
}

func requireName(name, code, message string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", edhrec.NewValidationError(code, message)
	}
	return name, nil
}
