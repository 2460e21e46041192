package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
	"github.com/wealthtrack-dev/wealthtrack/internal/schema"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func detect(t *testing.T, header []string, rows ...model.RawRow) schema.Mapping {
	t.Helper()
	mapping, err := schema.Detect(header, rows)
	require.NoError(t, err)
	return mapping
}

func TestNormalize_TotalCostColumn(t *testing.T) {
	mapping := detect(t, []string{"Symbol", "Shares", "Cost Basis"})
	rows := []model.RawRow{
		{"AAPL", "3", "450"},
		{"vti", "5.5", "500.25"},
	}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())
	require.Empty(t, errs)
	require.Len(t, positions, 2)

	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.True(t, positions[0].CostBasis.Equal(dec("450")))

	// Symbols are upper-cased on the way in.
	assert.Equal(t, "VTI", positions[1].Symbol)
	assert.True(t, positions[1].Shares.Equal(dec("5.5")))
}

func TestNormalize_PerShareCostMultiplied(t *testing.T) {
	mapping := detect(t, []string{"Ticker", "Quantity", "Average_Cost"})
	rows := []model.RawRow{{"BTC-USD", "0.25", "45000"}}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())
	require.Empty(t, errs)
	require.Len(t, positions, 1)

	assert.Equal(t, "BTC-USD", positions[0].Symbol)
	assert.True(t, positions[0].CostBasis.Equal(dec("11250")),
		"average cost is per-share and must be multiplied by shares, got %s", positions[0].CostBasis)
}

func TestNormalize_BadRowsDoNotAbortBatch(t *testing.T) {
	mapping := detect(t, []string{"Symbol", "Shares", "Cost Basis"})
	rows := []model.RawRow{
		{"AAPL", "3", "450"},
		{"GOOG", "abc", "100"},
		{"", "2", "50"},
		{"MSFT", "0", "10"},
		{"VTI", "5", "500"},
	}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())

	require.Len(t, positions, 2)
	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.Equal(t, "VTI", positions[1].Symbol)

	require.Len(t, errs, 3)
	assert.Equal(t, 3, errs[0].Row)
	assert.Contains(t, errs[0].Reason, "unparsable shares")
	assert.Equal(t, 4, errs[1].Row)
	assert.Equal(t, "empty symbol", errs[1].Reason)
	assert.Equal(t, 5, errs[2].Row)
	assert.Contains(t, errs[2].Reason, "non-positive shares")
	for _, e := range errs {
		assert.False(t, e.Warning)
	}
}

func TestNormalize_NegativeCostRejected(t *testing.T) {
	mapping := detect(t, []string{"Symbol", "Shares", "Cost Basis"})
	rows := []model.RawRow{{"AAPL", "3", "-450"}}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())
	assert.Empty(t, positions)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Reason, "negative cost basis")
}

func TestNormalize_CurrencyNoise(t *testing.T) {
	mapping := detect(t, []string{"Symbol", "Shares", "Cost Basis"})
	rows := []model.RawRow{{"AAPL", "1,250", "$1,234.56"}}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())
	require.Empty(t, errs)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Shares.Equal(dec("1250")))
	assert.True(t, positions[0].CostBasis.Equal(dec("1234.56")))
}

func TestNormalize_AmbiguousCostRatioHeuristic(t *testing.T) {
	mapping := schema.Mapping{
		schema.FieldSymbol:    {Index: 0},
		schema.FieldShares:    {Index: 1},
		schema.FieldCostBasis: {Index: 2, Unit: schema.UnitUnknown},
		schema.FieldPrice:     {Index: 3},
	}

	rows := []model.RawRow{
		// 0.5 per batch of 10 shares at price 200: per-share cost 0.05 is
		// far below 1% of price, so the column must have been per-share.
		{"TINY", "10", "0.5", "200"},
		// 1500 over 10 shares at price 200 is a plausible total.
		{"NORM", "10", "1500", "200"},
	}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())
	require.Len(t, positions, 2)

	assert.True(t, positions[0].CostBasis.Equal(dec("5")), "got %s", positions[0].CostBasis)
	assert.True(t, positions[1].CostBasis.Equal(dec("1500")))

	require.Len(t, errs, 1)
	assert.True(t, errs[0].Warning)
	assert.Contains(t, errs[0].Reason, "reinterpreted as per-share")
}

func TestNormalize_ZeroRatioDisablesReinterpretation(t *testing.T) {
	mapping := schema.Mapping{
		schema.FieldSymbol:    {Index: 0},
		schema.FieldShares:    {Index: 1},
		schema.FieldCostBasis: {Index: 2, Unit: schema.UnitUnknown},
		schema.FieldPrice:     {Index: 3},
	}
	rows := []model.RawRow{{"TINY", "10", "0.5", "200"}}

	positions, errs := Normalize(rows, mapping, Policy{PerShareRatio: decimal.Zero})
	require.Len(t, positions, 1)
	require.Empty(t, errs)

	// The implausibly small value is kept as the stated total.
	assert.True(t, positions[0].CostBasis.Equal(dec("0.5")), "got %s", positions[0].CostBasis)
}

func TestNormalize_CostDerivedFromPrice(t *testing.T) {
	mapping := detect(t, []string{"Symbol", "Shares", "Price"}, model.RawRow{"AAPL", "3", "150"})
	rows := []model.RawRow{{"AAPL", "3", "150"}}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())
	require.Empty(t, errs)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].CostBasis.Equal(dec("450")))
}

func TestNormalize_CostFromMarketValueWarns(t *testing.T) {
	mapping := schema.Mapping{
		schema.FieldSymbol:      {Index: 0},
		schema.FieldShares:      {Index: 1},
		schema.FieldMarketValue: {Index: 2},
	}
	rows := []model.RawRow{{"AAPL", "3", "480"}}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())
	require.Len(t, positions, 1)
	assert.True(t, positions[0].CostBasis.Equal(dec("480")))

	require.Len(t, errs, 1)
	assert.True(t, errs[0].Warning)
	assert.Contains(t, errs[0].Reason, "approximated from market value")
}

func TestNormalize_UnknownCostRecordedAsZero(t *testing.T) {
	mapping := detect(t, []string{"Symbol", "Shares", "Price"}, model.RawRow{"AAPL", "3", "150"})
	rows := []model.RawRow{{"AAPL", "3", "N/A"}}

	positions, errs := Normalize(rows, mapping, DefaultPolicy())
	require.Len(t, positions, 1)
	assert.True(t, positions[0].CostBasis.IsZero())

	require.Len(t, errs, 1)
	assert.True(t, errs[0].Warning)
	assert.Equal(t, 2, errs[0].Row, "first data row is file line 2")
	assert.Contains(t, errs[0].Reason, "cost basis unknown")
}

func TestRowError_Error(t *testing.T) {
	e := RowError{Row: 7, Reason: "empty symbol"}
	assert.Equal(t, "row 7: empty symbol", e.Error())

	w := RowError{Row: 3, Reason: "cost basis unknown, recorded as 0", Warning: true}
	assert.Contains(t, w.Error(), "warning")
}
