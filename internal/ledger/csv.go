package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

// Header is the CSV header for holdings.csv.
const Header = "symbol,shares,cost_basis,source,added"

const (
	numFields  = 5
	dateFormat = "2006-01-02"
	colSymbol  = 0
	colShares  = 1
	colCost    = 2
	colSource  = 3
	colAdded   = 4
)

// ReadLedger reads a full holdings.csv from r.
func ReadLedger(r io.Reader) (Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return Ledger{}, fmt.Errorf("reading holdings CSV: %w", err)
	}

	if len(records) == 0 {
		return New(nil)
	}

	// Skip header row.
	var positions []model.Position
	for i, rec := range records[1:] {
		p, err := UnmarshalPosition(rec)
		if err != nil {
			return Ledger{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		positions = append(positions, p)
	}

	l, err := New(positions)
	if err != nil {
		return Ledger{}, fmt.Errorf("holdings CSV: %w", err)
	}
	return l, nil
}

// WriteLedger writes the full ledger (including header) to w.
func WriteLedger(w io.Writer, l Ledger) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, p := range l.Positions() {
		if err := cw.Write(MarshalPosition(p)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalPosition converts a Position to a CSV row. Decimal values keep
// their exact string form so a saved ledger reloads bit-identical.
func MarshalPosition(p model.Position) []string {
	row := make([]string, numFields)
	row[colSymbol] = p.Symbol
	row[colShares] = p.Shares.String()
	row[colCost] = p.CostBasis.String()
	row[colSource] = p.Source
	if !p.Added.IsZero() {
		row[colAdded] = p.Added.Format(dateFormat)
	}
	return row
}

// UnmarshalPosition converts a CSV row to a Position.
func UnmarshalPosition(record []string) (model.Position, error) {
	if len(record) != numFields {
		return model.Position{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	shares, err := decimal.NewFromString(record[colShares])
	if err != nil {
		return model.Position{}, fmt.Errorf("parsing shares %q: %w", record[colShares], err)
	}

	cost, err := decimal.NewFromString(record[colCost])
	if err != nil {
		return model.Position{}, fmt.Errorf("parsing cost_basis %q: %w", record[colCost], err)
	}

	var added time.Time
	if record[colAdded] != "" {
		added, err = time.Parse(dateFormat, record[colAdded])
		if err != nil {
			return model.Position{}, fmt.Errorf("parsing added %q: %w", record[colAdded], err)
		}
	}

	return model.Position{
		Symbol:    record[colSymbol],
		Shares:    shares,
		CostBasis: cost,
		Source:    record[colSource],
		Added:     added,
	}, nil
}
