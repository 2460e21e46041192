package model

import "fmt"

// MergeStrategy governs how an incoming batch combines with existing ledger
// entries. It is a closed type so an invalid strategy cannot reach the
// reconciler as a string.
type MergeStrategy int

const (
	// StrategyAppend keeps existing entries and sums shares and cost basis
	// into positions that already exist.
	StrategyAppend MergeStrategy = iota
	// StrategyReplace discards the existing ledger entirely.
	StrategyReplace
	// StrategyUpdate overwrites shares and cost basis of existing positions
	// and adds the rest.
	StrategyUpdate
)

// ParseStrategy converts a CLI flag value to a MergeStrategy.
func ParseStrategy(s string) (MergeStrategy, error) {
	switch s {
	case "append":
		return StrategyAppend, nil
	case "replace":
		return StrategyReplace, nil
	case "update":
		return StrategyUpdate, nil
	}
	return 0, fmt.Errorf("unknown merge strategy %q (want append, replace, or update)", s)
}

func (s MergeStrategy) String() string {
	switch s {
	case StrategyAppend:
		return "append"
	case StrategyReplace:
		return "replace"
	case StrategyUpdate:
		return "update"
	}
	return fmt.Sprintf("MergeStrategy(%d)", int(s))
}
