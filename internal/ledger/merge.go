package ledger

import (
	"fmt"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

// MergeError reports a post-parse invariant violation during reconciliation.
// The merge that raised it applied nothing: the prior ledger is unchanged.
type MergeError struct {
	Symbol string
	Reason string
}

func (e *MergeError) Error() string {
	if e.Symbol == "" {
		return "merge rejected: " + e.Reason
	}
	return fmt.Sprintf("merge rejected [%s]: %s", e.Symbol, e.Reason)
}

// Merge combines an incoming batch into the existing ledger under the given
// strategy and returns a new snapshot. The merge is atomic: any invalid
// position rejects the whole batch and the existing ledger is returned
// unchanged alongside the error. An empty batch returns the existing ledger
// unchanged for every strategy.
func Merge(existing Ledger, incoming []model.Position, strategy model.MergeStrategy) (Ledger, error) {
	if len(incoming) == 0 {
		return existing, nil
	}
	if err := validateBatch(incoming, strategy); err != nil {
		return existing, err
	}

	switch strategy {
	case model.StrategyReplace:
		folded, err := New(fold(incoming))
		if err != nil {
			return existing, &MergeError{Reason: err.Error()}
		}
		return folded, nil

	case model.StrategyAppend:
		next := clone(existing)
		for _, p := range fold(incoming) {
			if i, ok := next.index[symbolKey(p.Symbol)]; ok {
				cur := next.positions[i]
				cur.Shares = cur.Shares.Add(p.Shares)
				cur.CostBasis = cur.CostBasis.Add(p.CostBasis)
				next.positions[i] = cur
			} else {
				next.add(p)
			}
		}
		return next, nil

	case model.StrategyUpdate:
		next := clone(existing)
		for _, p := range incoming {
			if i, ok := next.index[symbolKey(p.Symbol)]; ok {
				cur := next.positions[i]
				cur.Shares = p.Shares
				cur.CostBasis = p.CostBasis
				if p.Source != "" {
					cur.Source = p.Source
				}
				if !p.Added.IsZero() {
					cur.Added = p.Added
				}
				next.positions[i] = cur
			} else {
				next.add(p)
			}
		}
		return next, nil
	}

	return existing, &MergeError{Reason: fmt.Sprintf("unknown strategy %v", strategy)}
}

// validateBatch enforces the position invariants before anything is applied.
// Under update, the same symbol appearing twice in one batch is ambiguous
// (which values win?) and rejects the batch; append and replace fold
// duplicates by summing instead.
func validateBatch(incoming []model.Position, strategy model.MergeStrategy) error {
	seen := make(map[string]bool, len(incoming))
	for _, p := range incoming {
		key := symbolKey(p.Symbol)
		if key == "" {
			return &MergeError{Reason: "empty symbol"}
		}
		if !p.Shares.IsPositive() {
			return &MergeError{Symbol: p.Symbol, Reason: fmt.Sprintf("non-positive shares %s", p.Shares)}
		}
		if p.CostBasis.IsNegative() {
			return &MergeError{Symbol: p.Symbol, Reason: fmt.Sprintf("negative cost basis %s", p.CostBasis)}
		}
		if seen[key] && strategy == model.StrategyUpdate {
			return &MergeError{Symbol: p.Symbol, Reason: "duplicate symbol in update batch"}
		}
		seen[key] = true
	}
	return nil
}

// fold sums duplicate symbols within a batch so the merge proper sees one
// position per symbol, in first-appearance order.
func fold(incoming []model.Position) []model.Position {
	out := make([]model.Position, 0, len(incoming))
	at := make(map[string]int, len(incoming))
	for _, p := range incoming {
		key := symbolKey(p.Symbol)
		if i, ok := at[key]; ok {
			cur := out[i]
			cur.Shares = cur.Shares.Add(p.Shares)
			cur.CostBasis = cur.CostBasis.Add(p.CostBasis)
			out[i] = cur
			continue
		}
		at[key] = len(out)
		out = append(out, p)
	}
	return out
}

func clone(l Ledger) Ledger {
	c := Ledger{
		positions: make([]model.Position, len(l.positions)),
		index:     make(map[string]int, len(l.index)),
	}
	copy(c.positions, l.positions)
	for k, v := range l.index {
		c.index[k] = v
	}
	return c
}

func (l *Ledger) add(p model.Position) {
	l.index[symbolKey(p.Symbol)] = len(l.positions)
	l.positions = append(l.positions, p)
}
