package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price for a symbol, merged into holdings views at
// display time and never persisted with the ledger.
type Quote struct {
	Symbol string
	Price  decimal.Decimal
	Asof   time.Time
}
