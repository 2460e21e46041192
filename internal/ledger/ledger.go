package ledger

import (
	"fmt"
	"strings"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

// Ledger is the ordered collection of current holdings, unique by symbol.
// A Ledger value is a snapshot: Merge and the Store always hand out fresh
// copies, never views into someone else's backing array.
type Ledger struct {
	positions []model.Position
	index     map[string]int
}

// New builds a Ledger from positions, preserving order. Duplicate symbols
// are an error; callers that may hold duplicates fold them first.
func New(positions []model.Position) (Ledger, error) {
	l := Ledger{
		positions: make([]model.Position, 0, len(positions)),
		index:     make(map[string]int, len(positions)),
	}
	for _, p := range positions {
		key := symbolKey(p.Symbol)
		if _, dup := l.index[key]; dup {
			return Ledger{}, fmt.Errorf("duplicate symbol %s", p.Symbol)
		}
		l.index[key] = len(l.positions)
		l.positions = append(l.positions, p)
	}
	return l, nil
}

// Len returns the number of positions.
func (l Ledger) Len() int { return len(l.positions) }

// Positions returns the holdings in ledger order. The slice is a copy.
func (l Ledger) Positions() []model.Position {
	out := make([]model.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// Get returns the position for a symbol, case-insensitively.
func (l Ledger) Get(symbol string) (model.Position, bool) {
	i, ok := l.index[symbolKey(symbol)]
	if !ok {
		return model.Position{}, false
	}
	return l.positions[i], true
}

func symbolKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
