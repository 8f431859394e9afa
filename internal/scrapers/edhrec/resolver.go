package edhrec

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"mightstone-backend/internal/components/assert"
	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/lib/htmlutil"

	"github.com/antzucaro/matchr"
)

const (
	report_resolver_commander_page = "resolver.commander-page"
	report_resolver_search         = "resolver.search"
	report_resolver_discover       = "resolver.discover"
	report_resolver_probe          = "resolver.probe"
)

type Stage string

const (
	StageDiscovered Stage = "discovered"
	StageProbed     Stage = "probed"
)

// Resolution is an average deck URL that is known to serve exactly the
// requested bracket.
type Resolution struct {
	Commander    string      `json:"commander"`
	Slug         string      `json:"slug"`
	Bracket      BracketSpec `json:"bracket"`
	URL          string      `json:"source_url"`
	Path         string      `json:"path"`
	Stage        Stage       `json:"stage"`
	CommanderURL string      `json:"commander_url,omitempty"`
	// Available lists the brackets linked from the commander page.
	Available []string `json:"available_brackets"`
	Attempted []string `json:"attempted,omitempty"`
}

var (
	averageDeckPathRegex = regexp.MustCompile(`^/average-decks/([a-z0-9\-]+)(?:/([a-z0-9\-]+)(?:/([a-z0-9\-]+))?)?/?$`)
	commanderPathRegex   = regexp.MustCompile(`^/commanders/([a-z0-9\-]+)/?$`)
)

// Resolver maps a commander and bracket token to an average deck URL. It
// never answers with a URL for a different bracket than the one requested.
type Resolver struct {
	fetcher PageFetcher
	tel     telemetry.API
}

func NewResolver(fetcher PageFetcher, tel telemetry.API) Resolver {
	assert.NotNil(fetcher)
	assert.NotNil(tel)
	return Resolver{
		fetcher: fetcher,
		tel:     telemetry.NewScopedAPI("edhrec", tel),
	}
}

// resolveState accumulates what both stages learned. Only stage B probes
// decide between an unavailable bracket and an upstream failure.
type resolveState struct {
	spec         BracketSpec
	commanderURL string
	slugs        []string
	available    []string
	attempted    []string
	probeFailure *Error
}

func (s *resolveState) ownSlug(slug string) bool {
	for _, existing := range s.slugs {
		if existing == slug {
			return true
		}
	}
	return false
}

func (s *resolveState) addSlug(slug string) {
	for _, existing := range s.slugs {
		if existing == slug {
			return
		}
	}
	s.slugs = append(s.slugs, slug)
}

func (s *resolveState) addAvailable(bracket string) {
	for _, existing := range s.available {
		if existing == bracket {
			return
		}
	}
	s.available = append(s.available, bracket)
}

func (s *resolveState) failProbe(err error) {
	e := AsError(err)
	if e.Kind != KindNotFound && s.probeFailure == nil {
		s.probeFailure = e
	}
}

func (r Resolver) Resolve(ctx context.Context, commander, token string) (Resolution, error) {
	name := strings.TrimSpace(commander)
	if name == "" {
		return Resolution{}, NewValidationError("NAME_REQUIRED", "Commander name is required")
	}
	spec, err := ParseBracket(token)
	if err != nil {
		return Resolution{}, err
	}
	slugs := SlugCandidates(name)
	if len(slugs) == 0 {
		return Resolution{}, NewValidationError("NAME_REQUIRED", fmt.Sprintf("Commander name '%s' has no usable characters", name))
	}

	state := &resolveState{spec: spec}
	for _, slug := range slugs {
		state.addSlug(slug)
	}

	result := Resolution{Commander: name, Bracket: spec}

	// stage A: links on the commander page
	if page, slug, ok := r.commanderPage(ctx, name, slugs); ok {
		state.commanderURL = page.URL
		state.addSlug(slug)
		if path, linkSlug, found := r.discover(ctx, page, state); found {
			result.Slug = linkSlug
			result.URL = r.fetcher.URL(path)
			result.Path = path
			result.Stage = StageDiscovered
			result.CommanderURL = state.commanderURL
			result.Available = state.available
			r.tel.ReportDebug(report_resolver_discover, name, spec.String(), result.URL)
			return result, nil
		}
	}

	// stage B: probe the exact URL for every slug
	for _, slug := range state.slugs {
		path := "/average-decks/" + slug
		if suffix := spec.Path(); suffix != "" {
			path += "/" + suffix
		}
		target := r.fetcher.URL(path)
		state.attempted = append(state.attempted, target)

		err := r.fetcher.Probe(ctx, path)
		if err != nil {
			r.tel.ReportDebug(report_resolver_probe, target, err)
			state.failProbe(err)
			continue
		}
		result.Slug = slug
		result.URL = target
		result.Path = path
		result.Stage = StageProbed
		result.CommanderURL = state.commanderURL
		result.Available = state.available
		result.Attempted = state.attempted
		if len(result.Available) == 0 {
			result.Available = []string{spec.String()}
		}
		return result, nil
	}

	return Resolution{}, r.unavailable(name, state)
}

func (r Resolver) unavailable(name string, state *resolveState) *Error {
	e := &Error{
		Kind:      KindNotFound,
		Code:      "BRACKET_UNAVAILABLE",
		Message:   fmt.Sprintf("Bracket '%s' not found for '%s'", state.spec.String(), name),
		URL:       state.commanderURL,
		Status:    404,
		Attempted: state.attempted,
		Available: state.available,
	}
	if state.commanderURL == "" {
		e.Code = "NOT_FOUND"
		e.Message = fmt.Sprintf("Could not resolve average-decks URL for '%s'", name)
		e.Details = "Check spelling or use the front face name, the commander may be too new to be indexed"
	}
	if failure := state.probeFailure; failure != nil {
		e.Kind = KindUpstream
		e.Code = failure.Code
		e.Status = failure.Status
		e.Err = failure
		if e.URL == "" {
			e.URL = failure.URL
		}
	}
	return e
}

// commanderPage finds the commander page by slug, falling back to the site
// search ranked by similarity to the primary slug.
func (r Resolver) commanderPage(ctx context.Context, name string, slugs []string) (Page, string, bool) {
	for _, slug := range slugs {
		page, err := r.fetcher.FetchPage(ctx, "/commanders/"+slug)
		if err == nil {
			return page, slug, true
		}
		r.tel.ReportDebug(report_resolver_commander_page, slug, err)
	}

	search, err := r.fetcher.FetchPage(ctx, "/search?q="+url.QueryEscape(name))
	if err != nil {
		r.tel.ReportDebug(report_resolver_search, name, err)
		return Page{}, "", false
	}
	doc, err := search.Document()
	if err != nil {
		r.tel.ReportDebug(report_resolver_search, name, err)
		return Page{}, "", false
	}

	best := ""
	bestScore := -1.0
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		match := commanderPathRegex.FindStringSubmatch(anchor.Path)
		if match == nil {
			continue
		}
		score := matchr.JaroWinkler(match[1], slugs[0], false)
		if score > bestScore {
			best, bestScore = match[1], score
		}
	}
	if best == "" {
		return Page{}, "", false
	}

	page, err := r.fetcher.FetchPage(ctx, "/commanders/"+best)
	if err != nil {
		r.tel.ReportDebug(report_resolver_commander_page, best, err)
		return Page{}, "", false
	}
	return page, best, true
}

// discover records every average deck bucket the page links for its own
// commander and returns the path of the one exactly matching the requested
// bracket. Links to other commanders' decks are ignored.
func (r Resolver) discover(ctx context.Context, page Page, state *resolveState) (string, string, bool) {
	doc, err := page.Document()
	if err != nil {
		r.tel.ReportDebug(report_resolver_discover, page.URL, err)
		return "", "", false
	}

	exactPath, exactSlug := "", ""
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		match := averageDeckPathRegex.FindStringSubmatch(anchor.Path)
		if match == nil {
			continue
		}
		if !state.ownSlug(match[1]) {
			continue
		}
		spec, ok := parseBracketSegments(match[2], match[3])
		if !ok {
			continue
		}
		state.addAvailable(spec.String())
		if exactPath == "" && spec == state.spec {
			exactPath = strings.TrimSuffix(anchor.Path, "/")
			exactSlug = match[1]
		}
	}
	return exactPath, exactSlug, exactPath != ""
}

func parseBracketSegments(segments ...string) (BracketSpec, bool) {
	var parts []string
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	spec, err := ParseBracket(strings.Join(parts, "/"))
	return spec, err == nil
}
