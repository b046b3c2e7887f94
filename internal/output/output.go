// Package output renders batch results for the command line, either as
// formatted tables or as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/textutil"
)

// PrintErrorf prints an error message to stderr with formatting.
func PrintErrorf(format string, args ...any) {
	_, err := fmt.Fprintf(os.Stderr, format+"\n", args...)
	if err != nil {
		return
	}
}

// TableRenderer displays batch results in table format.
type TableRenderer struct {
	out io.Writer
}

// NewTableRenderer creates a renderer writing to out. A nil out means
// stdout.
func NewTableRenderer(out io.Writer) *TableRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &TableRenderer{out: out}
}

// RenderBatch displays the per-part summary of a finished batch.
func (r *TableRenderer) RenderBatch(snap domain.BatchSnapshot, results map[string]*domain.OfferSet) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Part", "Code", "State", "Offers", "Min", "Median", "Max", "Note"})

	for _, part := range snap.Parts {
		row := table.Row{part.Part.Name, part.Part.Code, part.State.String()}
		set := results[part.Part.ID]
		switch {
		case set != nil && set.Stats.Applicable:
			t.AppendRow(append(row,
				len(set.Offers),
				formatPrice(set.Stats.Min, set.Offers[0].Currency),
				formatPrice(int64(set.Stats.Median), set.Offers[0].Currency),
				formatPrice(set.Stats.Max, set.Offers[0].Currency),
				skippedNote(set),
			))
		case set != nil:
			t.AppendRow(append(row, 0, "", "", "", "no offers"))
		default:
			t.AppendRow(append(row, 0, "", "", "", part.FailureReason))
		}
	}

	t.AppendFooter(table.Row{
		"", "",
		fmt.Sprintf("%d done / %d failed", snap.Completed, snap.Failed),
		"", "", "", "",
		fmt.Sprintf("%.0f%%", snap.Progress),
	})
	t.Render()
}

// RenderOffers displays every offer of one part.
func (r *TableRenderer) RenderOffers(set *domain.OfferSet) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Seller", "Price", "Condition", "Link"})
	for _, offer := range set.Offers {
		seller := offer.SellerName
		if seller == "" {
			seller = offer.SellerKey
		}
		t.AppendRow(table.Row{
			seller,
			formatPrice(offer.Amount, offer.Currency),
			offer.Condition,
			offer.Link,
		})
	}
	t.Render()

	for _, skip := range set.SkippedCandidates {
		fmt.Fprintf(r.out, "skipped %s: %s\n", skip.ProductRef, skip.Reason)
	}
}

// JSONRenderer displays batch results as indented JSON.
type JSONRenderer struct {
	out io.Writer
}

// NewJSONRenderer creates a renderer writing to out. A nil out means
// stdout.
func NewJSONRenderer(out io.Writer) *JSONRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &JSONRenderer{out: out}
}

type jsonReport struct {
	Batch   domain.BatchSnapshot        `json:"batch"`
	Results map[string]*domain.OfferSet `json:"results"`
}

// RenderBatch writes the batch snapshot and all results as one document.
func (r *JSONRenderer) RenderBatch(snap domain.BatchSnapshot, results map[string]*domain.OfferSet) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{Batch: snap, Results: results})
}

func formatPrice(amount int64, currency string) string {
	return textutil.FormatAmount(amount) + " " + currency
}

func skippedNote(set *domain.OfferSet) string {
	if len(set.SkippedCandidates) == 0 {
		return ""
	}
	return fmt.Sprintf("%d skipped", len(set.SkippedCandidates))
}
