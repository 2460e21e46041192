package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/wealthtrack-dev/wealthtrack/internal/ledger"
	"github.com/wealthtrack-dev/wealthtrack/internal/pricing"
)

// ExportHeader is the canonical column set an export writes. Re-importing an
// export with the append strategy into an empty ledger reproduces the
// original symbol/shares/cost triples.
const ExportHeader = "Symbol,Shares,Cost_Basis,Current_Price,Market_Value,Gain_Loss"

// WriteHoldings serializes the ledger plus looked-up prices. A position
// whose price is unavailable is still exported, with the price-derived
// cells left blank.
func WriteHoldings(ctx context.Context, w io.Writer, l ledger.Ledger, quoter pricing.Quoter) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ExportHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, line := range Valuate(ctx, l, quoter).Lines {
		p := line.Position
		row := []string{p.Symbol, p.Shares.String(), p.CostBasis.String(), "", "", ""}
		if line.PriceKnown {
			row[3] = line.Price.String()
			row[4] = line.MarketValue.StringFixed(2)
			row[5] = line.GainLoss.StringFixed(2)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", p.Symbol, err)
		}
	}
	return cw.Error()
}
