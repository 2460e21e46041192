package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents one normalized holding: a ticker symbol, the number of
// shares held, and the total amount paid for them.
type Position struct {
	Symbol    string
	Shares    decimal.Decimal // always > 0 after normalization
	CostBasis decimal.Decimal // total paid, never per-share
	Source    string          // broker label, e.g. "sofi"
	Added     time.Time
}

// AvgCost returns the per-share cost (CostBasis / Shares). It is always
// derived, never stored, so the two totals cannot drift apart.
func (p Position) AvgCost() decimal.Decimal {
	if p.Shares.IsZero() {
		return decimal.Zero
	}
	return p.CostBasis.Div(p.Shares)
}
