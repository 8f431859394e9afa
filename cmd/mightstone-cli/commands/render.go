package commands

import (
	"fmt"
	"io"
	"strings"

	"mightstone-backend/internal/hydrator"
	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/service"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func countText(count *int) string {
	if count == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *count)
}

func renderTags(out io.Writer, tags service.CommanderTags) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s (%s)", tags.Commander, tags.SourceURL))
	t.AppendHeader(table.Row{"#", "Tag", "Decks"})
	for i, r := range tags.Records {
		t.AppendRow(table.Row{i + 1, r.Name, countText(r.DeckCount)})
	}
	t.Render()
}

func renderDeck(out io.Writer, deck service.AverageDeck) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s [%s] %s", deck.Commander, deck.Bracket, deck.SourceURL))
	t.AppendHeader(table.Row{"Qty", "Card", "Scryfall ID"})
	if deck.CommanderCard != nil {
		t.AppendRow(table.Row{deck.CommanderCard.Qty, deck.CommanderCard.Name + " (commander)", ""})
		t.AppendSeparator()
	}
	total := 0
	for _, c := range deck.Cards {
		total += c.Qty
		t.AppendRow(table.Row{c.Qty, c.Name, c.ID})
	}
	t.AppendFooter(table.Row{total, fmt.Sprintf("%d unique", len(deck.Cards)), ""})
	t.Render()

	if deck.Hydration != nil && len(deck.Hydration.Failures) > 0 {
		renderFailures(out, deck.Hydration.Failures)
	}
}

func renderResolution(out io.Writer, res edhrec.Resolution) {
	t := newTable(out)
	t.AppendRows([]table.Row{
		{"Commander", res.Commander},
		{"Bracket", res.Bracket.String()},
		{"URL", res.URL},
		{"Stage", res.Stage},
		{"Available", strings.Join(res.Available, ", ")},
	})
	t.Render()
}

func renderTheme(out io.Writer, page service.ThemePage) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s (%s)", page.Header, page.SourceURL))
	t.AppendHeader(table.Row{"Collection", "Card", "Scryfall ID"})
	for i, c := range page.Container.Collections {
		if i > 0 {
			t.AppendSeparator()
		}
		for _, item := range c.Items {
			t.AppendRow(table.Row{c.Header, item.Name, item.ID})
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	t.Render()
}

func renderFailures(out io.Writer, failures []hydrator.Outcome) {
	t := newTable(out)
	t.SetTitle("Lookup failures")
	t.AppendHeader(table.Row{"Card", "Status", "Error"})
	for _, f := range failures {
		t.AppendRow(table.Row{f.Name, f.Status, f.Error})
	}
	t.Render()
}

func renderError(out io.Writer, err error) {
	e := edhrec.AsError(err)
	t := newTable(out)
	t.SetTitle("Error")
	t.AppendRow(table.Row{"Message", e.Message})
	if e.Code != "" {
		t.AppendRow(table.Row{"Code", e.Code})
	}
	if e.URL != "" {
		t.AppendRow(table.Row{"URL", e.URL})
	}
	if len(e.Attempted) > 0 {
		t.AppendRow(table.Row{"Attempted", strings.Join(e.Attempted, "\n")})
	}
	if len(e.Available) > 0 {
		t.AppendRow(table.Row{"Available", strings.Join(e.Available, ", ")})
	}
	t.Render()
}

func percentText(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func renderSummary(out io.Writer, summary service.CommanderSummary) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s (%s)", summary.Commander, summary.SourceURL))
	t.AppendHeader(table.Row{"Category", "Card", "Synergy", "Inclusion"})
	for i, c := range summary.Categories {
		if i > 0 {
			t.AppendSeparator()
		}
		for _, card := range c.Cards {
			t.AppendRow(table.Row{c.Header, card.Name, percentText(card.SynergyPercent), percentText(card.InclusionPercent)})
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	t.Render()
}

func renderBrackets(out io.Writer, brackets []string) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Bracket"})
	for _, b := range brackets {
		t.AppendRow(table.Row{b})
	}
	t.Render()
}
