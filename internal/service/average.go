package service

import (
	"context"

	"mightstone-backend/internal/hydrator"
	"mightstone-backend/internal/scrapers/edhrec"
)

type AverageDeckRequest struct {
	Commander string
	// Bracket is any token edhrec.ParseBracket accepts, "" means all.
	Bracket string
	HydrateOptions
}

type AverageDeck struct {
	edhrec.DeckListResult
	Resolution edhrec.Resolution  `json:"resolution"`
	Tags       []edhrec.TagRecord `json:"commander_tags"`
	Sections   []edhrec.Section   `json:"sections"`
	Hydration  *hydrator.Report   `json:"hydration,omitempty"`
}

// Resolve maps a commander and bracket to the average deck URL serving
// exactly that bracket.
func (s Service) Resolve(ctx context.Context, commander, bracket string) (edhrec.Resolution, error) {
	return s.resolver.Resolve(ctx, commander, bracket)
}

// AverageDeck resolves the requested bracket, then parses the deck list from
// the average deck page.
func (s Service) AverageDeck(ctx context.Context, req AverageDeckRequest) (AverageDeck, error) {
	res, err := s.resolver.Resolve(ctx, req.Commander, req.Bracket)
	if err != nil {
		return AverageDeck{}, err
	}

	page, err := s.edhrec.FetchPage(ctx, res.Path)
	if err != nil {
		return AverageDeck{}, err
	}
	parsed, err := edhrec.ParseAverageDeckPage(page, res.Commander)
	if err != nil {
		s.tel.ReportWarning(report_average_deck_parse, res.URL, err)
		return AverageDeck{}, err
	}

	deck := AverageDeck{
		DeckListResult: edhrec.DeckListResult{
			Commander:     res.Commander,
			Bracket:       res.Bracket.String(),
			SourceURL:     res.URL,
			Cards:         parsed.Cards,
			CommanderCard: parsed.CommanderCard,
		},
		Resolution: res,
		Tags:       s.tags.Extract(parsed.Payload),
		Sections:   edhrec.ExtractSections(parsed.Payload),
	}

	if req.Hydrate {
		cards, report := s.hydrator.HydrateDeck(ctx, deck.Cards, s.hydrateOptions(req.HydrateOptions))
		deck.Cards = cards
		deck.Hydration = &report
		s.reportHydration(res.URL, report)
	}
	return deck, nil
}
