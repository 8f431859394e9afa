package hydrator

import (
	"context"
	"errors"
	"time"

	"mightstone-backend/internal/components/assert"
	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/scrapers/scryfall"

	"golang.org/x/sync/errgroup"
)

const (
	report_hydrate_lookup   = "hydrate.lookup"
	report_hydrate_hydrated = "hydrate.hydrated"
	report_hydrate_failed   = "hydrate.failed"
)

const DefaultLookupTimeout = 10 * time.Second

// Lookup resolves a card by its exact name.
type Lookup interface {
	Named(ctx context.Context, name string) (scryfall.Card, error)
}

type Options struct {
	// MaxItems caps the number of items looked up per call, 0 means no cap.
	MaxItems      int
	IncludeImages bool
	ImageSize     scryfall.ImageSize
	// Timeout applies to each lookup on its own.
	Timeout time.Duration
}

type Status string

const (
	StatusNotFound  Status = "not_found"
	StatusTimeout   Status = "timeout"
	StatusUpstream  Status = "upstream_error"
	StatusMalformed Status = "malformed"
)

// Outcome records a failed lookup, the item it belonged to is unchanged.
type Outcome struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Report struct {
	Requested int       `json:"requested"`
	Hydrated  int       `json:"hydrated"`
	Skipped   int       `json:"skipped"`
	Failures  []Outcome `json:"failures,omitempty"`
}

type Hydrator struct {
	lookup   Lookup
	throttle *Throttle
	tel      telemetry.API
}

func New(lookup Lookup, throttle *Throttle, tel telemetry.API) Hydrator {
	assert.NotNil(lookup)
	assert.NotNil(throttle)
	assert.NotNil(tel)
	return Hydrator{
		lookup:   lookup,
		throttle: throttle,
		tel:      telemetry.NewScopedAPI("hydrator", tel),
	}
}

// job is one pending item, index is its position in the flattened input.
type job struct {
	index int
	name  string
	apply func(card scryfall.Card) bool
}

// Hydrate fills id (and image if requested) of every item without an id.
// The input is not modified and the result keeps the input order. Failed
// lookups leave their item untouched and are listed in the report.
func (h Hydrator) Hydrate(ctx context.Context, items []edhrec.CollectionItem, opts Options) ([]edhrec.CollectionItem, Report) {
	out := make([]edhrec.CollectionItem, len(items))
	copy(out, items)

	var jobs []job
	for i := range out {
		if out[i].ID != "" || out[i].Name == "" {
			continue
		}
		item := &out[i]
		jobs = append(jobs, job{index: i, name: item.Name, apply: itemApplier(item, opts)})
	}
	return out, h.run(ctx, jobs, opts)
}

// HydratePage hydrates every collection of the page, spending MaxItems
// across collections in page order.
func (h Hydrator) HydratePage(ctx context.Context, page edhrec.NormalizedPage, opts Options) (edhrec.NormalizedPage, Report) {
	out := page
	out.Container.Collections = make([]edhrec.Collection, len(page.Container.Collections))

	var jobs []job
	index := 0
	for ci, collection := range page.Container.Collections {
		items := make([]edhrec.CollectionItem, len(collection.Items))
		copy(items, collection.Items)
		collection.Items = items
		out.Container.Collections[ci] = collection

		for ii := range items {
			item := &items[ii]
			if item.ID == "" && item.Name != "" {
				jobs = append(jobs, job{index: index, name: item.Name, apply: itemApplier(item, opts)})
			}
			index++
		}
	}
	return out, h.run(ctx, jobs, opts)
}

// HydrateDeck fills the ids and images of a deck list.
func (h Hydrator) HydrateDeck(ctx context.Context, cards []edhrec.DeckCard, opts Options) ([]edhrec.DeckCard, Report) {
	out := make([]edhrec.DeckCard, len(cards))
	copy(out, cards)

	var jobs []job
	for i := range out {
		if out[i].ID != "" || out[i].Name == "" {
			continue
		}
		card := &out[i]
		jobs = append(jobs, job{
			index: i,
			name:  card.Name,
			apply: func(c scryfall.Card) bool {
				card.ID = c.ID
				if image := c.ImageURL(opts.ImageSize); opts.IncludeImages && image != "" {
					card.Image = image
				}
				return true
			},
		})
	}
	return out, h.run(ctx, jobs, opts)
}

func itemApplier(item *edhrec.CollectionItem, opts Options) func(scryfall.Card) bool {
	return func(c scryfall.Card) bool {
		item.ID = c.ID
		if image := c.ImageURL(opts.ImageSize); opts.IncludeImages && image != "" {
			item.Image = image
		}
		return true
	}
}

// run performs the lookups of jobs, each job writes only to its own item so
// no locking is needed for the results.
func (h Hydrator) run(ctx context.Context, jobs []job, opts Options) Report {
	report := Report{}
	if opts.MaxItems > 0 && len(jobs) > opts.MaxItems {
		report.Skipped = len(jobs) - opts.MaxItems
		jobs = jobs[:opts.MaxItems]
	}
	report.Requested = len(jobs)
	if len(jobs) == 0 {
		return report
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}

	failures := make([]*Outcome, len(jobs))
	hydrated := make([]bool, len(jobs))

	group := errgroup.Group{}
	group.SetLimit(h.throttle.Capacity())
	for i, j := range jobs {
		group.Go(func() error {
			card, err := h.lookupOne(ctx, j.name, timeout)
			if err != nil {
				failures[i] = &Outcome{Index: j.index, Name: j.name, Status: classify(err), Error: err.Error()}
				h.tel.ReportDebug(report_hydrate_lookup, j.name, err)
				return nil
			}
			hydrated[i] = j.apply(card)
			return nil
		})
	}
	// jobs never return errors
	_ = group.Wait()

	for i := range jobs {
		if hydrated[i] {
			report.Hydrated++
		}
		if failures[i] != nil {
			report.Failures = append(report.Failures, *failures[i])
		}
	}
	h.tel.ReportCount(report_hydrate_hydrated, int64(report.Hydrated))
	if len(report.Failures) > 0 {
		h.tel.ReportCount(report_hydrate_failed, int64(len(report.Failures)))
	}
	return report
}

func (h Hydrator) lookupOne(ctx context.Context, name string, timeout time.Duration) (scryfall.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	release, err := h.throttle.Acquire(ctx)
	if err != nil {
		return scryfall.Card{}, err
	}
	defer release()
	return h.lookup.Named(ctx, name)
}

func classify(err error) Status {
	switch {
	case errors.Is(err, scryfall.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, scryfall.ErrMalformed):
		return StatusMalformed
	case errors.Is(err, context.Canceled), edhrec.IsTimeout(err):
		return StatusTimeout
	default:
		return StatusUpstream
	}
}
