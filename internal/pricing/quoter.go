package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

// ErrUnavailable means no current price could be produced for a symbol.
// Display paths degrade to "price unavailable" on it; it never fails a
// ledger read and it never blocks ingestion.
var ErrUnavailable = errors.New("price unavailable")

// Quoter looks up a current price for a symbol.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
}

// Static is a fixed symbol-to-price table, used in tests and offline runs.
type Static map[string]decimal.Decimal

// Quote returns the table entry for symbol or ErrUnavailable.
func (s Static) Quote(_ context.Context, symbol string) (model.Quote, error) {
	price, ok := s[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrUnavailable)
	}
	return model.Quote{Symbol: strings.ToUpper(symbol), Price: price, Asof: time.Now()}, nil
}
