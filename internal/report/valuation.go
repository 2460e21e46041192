package report

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wealthtrack-dev/wealthtrack/internal/ledger"
	"github.com/wealthtrack-dev/wealthtrack/internal/model"
	"github.com/wealthtrack-dev/wealthtrack/internal/pricing"
)

// Line is one valued position in a display or export view.
type Line struct {
	Position    model.Position
	Price       decimal.Decimal
	PriceKnown  bool
	MarketValue decimal.Decimal
	GainLoss    decimal.Decimal
}

// Valuation aggregates the current worth of a ledger. Positions with no
// available price contribute zero market value; they still count toward
// total cost so the totals never hide a holding.
type Valuation struct {
	Lines      []Line
	TotalValue decimal.Decimal
	TotalCost  decimal.Decimal
	TotalGain  decimal.Decimal
}

// GainPct returns the total gain as a percentage of total cost.
func (v Valuation) GainPct() decimal.Decimal {
	if !v.TotalCost.IsPositive() {
		return decimal.Zero
	}
	return v.TotalGain.Div(v.TotalCost).Mul(decimal.NewFromInt(100))
}

// Valuate merges current prices into the ledger at display time. It never
// fails: an unavailable quote degrades that line, not the whole view.
func Valuate(ctx context.Context, l ledger.Ledger, quoter pricing.Quoter) Valuation {
	v := Valuation{
		TotalValue: decimal.Zero,
		TotalCost:  decimal.Zero,
		TotalGain:  decimal.Zero,
	}

	for _, p := range l.Positions() {
		line := Line{Position: p}
		if quoter != nil {
			if q, err := quoter.Quote(ctx, p.Symbol); err == nil {
				line.Price = q.Price
				line.PriceKnown = true
				line.MarketValue = q.Price.Mul(p.Shares)
				line.GainLoss = line.MarketValue.Sub(p.CostBasis)
				v.TotalValue = v.TotalValue.Add(line.MarketValue)
			}
		}
		v.TotalCost = v.TotalCost.Add(p.CostBasis)
		v.Lines = append(v.Lines, line)
	}

	v.TotalGain = v.TotalValue.Sub(v.TotalCost)
	return v
}
