package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
	"github.com/wealthtrack-dev/wealthtrack/internal/schema"
)

// RowError describes one rejected or suspect source row. Row errors are
// collected and reported; they never abort the batch.
type RowError struct {
	Row     int // file line number (header is line 1)
	Reason  string
	Warning bool // true when the row was still accepted
}

func (e RowError) Error() string {
	if e.Warning {
		return fmt.Sprintf("row %d: warning: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Policy holds the tunable parts of normalization. When a cost column's
// unit is unknown and a price column is present, a cost-per-share below
// PerShareRatio x price reinterprets the value as per-share. A zero ratio
// disables the reinterpretation.
type Policy struct {
	PerShareRatio decimal.Decimal
}

// DefaultPolicy returns the documented default policy.
func DefaultPolicy() Policy {
	return Policy{PerShareRatio: decimal.NewFromFloat(0.01)}
}

// markers that brokers emit for an absent cell.
var emptyMarkers = map[string]bool{"": true, "NAN": true, "NULL": true, "N/A": true, "-": true, "--": true}

// Normalize applies a detected mapping to raw rows and coerces them into
// positions. Rows are processed independently: every parseable row is
// returned together with the full error list, so partial success is always
// visible to the caller.
func Normalize(rows []model.RawRow, mapping schema.Mapping, policy Policy) ([]model.Position, []RowError) {
	symCol, _ := mapping.Lookup(schema.FieldSymbol)
	sharesCol, _ := mapping.Lookup(schema.FieldShares)
	costCol, hasCost := mapping.Lookup(schema.FieldCostBasis)
	priceCol, hasPrice := mapping.Lookup(schema.FieldPrice)
	valueCol, hasValue := mapping.Lookup(schema.FieldMarketValue)

	var positions []model.Position
	var errs []RowError

	for i, row := range rows {
		line := i + 2 // line 1 is the header

		symbol := strings.ToUpper(strings.TrimSpace(cell(row, symCol.Index)))
		if emptyMarkers[symbol] {
			errs = append(errs, RowError{Row: line, Reason: "empty symbol"})
			continue
		}

		shares, err := parseNumber(cell(row, sharesCol.Index))
		if err != nil {
			errs = append(errs, RowError{Row: line, Reason: fmt.Sprintf("unparsable shares %q", cell(row, sharesCol.Index))})
			continue
		}
		if !shares.IsPositive() {
			errs = append(errs, RowError{Row: line, Reason: fmt.Sprintf("non-positive shares %s", shares)})
			continue
		}

		var price decimal.Decimal
		priceKnown := false
		if hasPrice {
			if p, err := parseNumber(cell(row, priceCol.Index)); err == nil && p.IsPositive() {
				price, priceKnown = p, true
			}
		}

		cost, warn, ok := resolveCost(row, shares, price, priceKnown, costCol, hasCost, valueCol, hasValue, policy)
		if !ok {
			cost = decimal.Zero
			warn = "cost basis unknown, recorded as 0"
		}
		if cost.IsNegative() {
			errs = append(errs, RowError{Row: line, Reason: fmt.Sprintf("negative cost basis %s", cost)})
			continue
		}
		if warn != "" {
			errs = append(errs, RowError{Row: line, Reason: warn, Warning: true})
		}

		positions = append(positions, model.Position{
			Symbol:    symbol,
			Shares:    shares,
			CostBasis: cost,
		})
	}

	return positions, errs
}

// resolveCost produces a total cost basis for one row. Resolution order:
// mapped cost column (with its unit hint), price x shares, market value.
// ok is false when none of the mapped columns yielded a value.
func resolveCost(row model.RawRow, shares, price decimal.Decimal, priceKnown bool,
	costCol schema.Match, hasCost bool, valueCol schema.Match, hasValue bool, policy Policy) (decimal.Decimal, string, bool) {

	if hasCost {
		if v, err := parseNumber(cell(row, costCol.Index)); err == nil {
			switch costCol.Unit {
			case schema.UnitPerShare:
				return v.Mul(shares), "", true
			case schema.UnitTotal:
				return v, "", true
			default:
				// Unit unknown: default to total. An implausibly small
				// per-share figure relative to the quoted price means the
				// column was per-share after all.
				if priceKnown && shares.IsPositive() &&
					v.Div(shares).LessThan(policy.PerShareRatio.Mul(price)) {
					return v.Mul(shares), fmt.Sprintf("cost %s reinterpreted as per-share", v), true
				}
				return v, "", true
			}
		}
	}

	if priceKnown {
		return price.Mul(shares), "", true
	}

	if hasValue {
		if v, err := parseNumber(cell(row, valueCol.Index)); err == nil {
			return v, "cost basis approximated from market value", true
		}
	}

	return decimal.Zero, "", false
}

func cell(row model.RawRow, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseNumber parses a broker-export numeric cell, tolerating currency
// symbols, thousands separators and surrounding whitespace.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if emptyMarkers[strings.ToUpper(s)] {
		return decimal.Decimal{}, fmt.Errorf("empty value")
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ':
			return -1
		}
		return r
	}, s)
	return decimal.NewFromString(clean)
}
