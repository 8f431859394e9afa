package service

import (
	"context"
	"fmt"
	"strings"

	"mightstone-backend/internal/scrapers/edhrec"
)

const (
	DefaultSearchLimit = 25
	MaxSearchLimit     = 175
)

type CardSummary struct {
	Name          string   `json:"name"`
	ID            string   `json:"id"`
	TypeLine      string   `json:"type_line"`
	ColorIdentity []string `json:"ci"`
	CMC           float64  `json:"cmc"`
}

// SearchCards runs a Scryfall query and returns at most limit cards.
func (s Service) SearchCards(ctx context.Context, query string, limit int) ([]CardSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, edhrec.NewValidationError("QUERY_REQUIRED", "Search query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	cards, err := s.cards.Search(ctx, query, limit)
	if err != nil {
		s.tel.ReportWarning(report_search_cards, query, err)
		return nil, edhrec.NewUpstreamError("", 0, fmt.Sprintf("Scryfall search failed for '%s'", query), err)
	}

	out := make([]CardSummary, len(cards))
	for i, c := range cards {
		ci := c.ColorIdentity
		if ci == nil {
			ci = []string{}
		}
		out[i] = CardSummary{Name: c.Name, ID: c.ID, TypeLine: c.TypeLine, ColorIdentity: ci, CMC: c.CMC}
	}
	return out, nil
}
