package schema

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

// Field is one of the canonical columns every broker export maps onto.
type Field string

const (
	FieldSymbol      Field = "symbol"
	FieldShares      Field = "shares"
	FieldCostBasis   Field = "cost_basis"
	FieldPrice       Field = "price"
	FieldMarketValue Field = "market_value"
)

// resolveOrder fixes the order fields claim columns in. A column claimed by
// an earlier field is not reusable by a later one.
var resolveOrder = []Field{FieldSymbol, FieldShares, FieldCostBasis, FieldPrice, FieldMarketValue}

// Confidence records how a column was matched. Heuristic matches should be
// confirmed by the caller before rows are processed; detection itself never
// blocks.
type Confidence string

const (
	Exact     Confidence = "exact"
	Heuristic Confidence = "heuristic"
)

// CostUnit describes how a matched cost column is denominated. Alias tables
// carry the hint; columns matched by fallback are UnitUnknown and the
// normalizer applies its ratio policy to them.
type CostUnit int

const (
	UnitUnknown CostUnit = iota
	UnitTotal
	UnitPerShare
)

// Match binds a canonical field to one source column.
type Match struct {
	Column     string // header text as written in the file
	Index      int    // column position
	Confidence Confidence
	Unit       CostUnit // meaningful only for FieldCostBasis
}

// Mapping is the detected source-column assignment for one file. Produced
// once per file, consumed immediately by the normalizer, never persisted.
type Mapping map[Field]Match

// Lookup returns the match for a field, if the field resolved.
func (m Mapping) Lookup(f Field) (Match, bool) {
	match, ok := m[f]
	return match, ok
}

// Heuristics returns the fields that resolved by fallback rather than by an
// exact alias, in resolution order.
func (m Mapping) Heuristics() []Field {
	var fields []Field
	for _, f := range resolveOrder {
		if match, ok := m[f]; ok && match.Confidence == Heuristic {
			fields = append(fields, f)
		}
	}
	return fields
}

// Error reports that detection failed because a mandatory field could not be
// resolved. It is fatal to the whole import, before any row is processed.
type Error struct {
	Missing []Field
}

func (e *Error) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("cannot detect column for %s", strings.Join(names, ", "))
}

// alias is one known header spelling for a canonical field, ranked by
// position in the list.
type alias struct {
	name string
	unit CostUnit
}

var aliases = map[Field][]alias{
	FieldSymbol: {
		{name: "symbol"}, {name: "ticker"}, {name: "instrument"}, {name: "stock"},
	},
	FieldShares: {
		{name: "shares"}, {name: "quantity"}, {name: "qty"}, {name: "units"},
	},
	FieldCostBasis: {
		{name: "cost basis", unit: UnitTotal},
		{name: "total cost", unit: UnitTotal},
		{name: "average cost", unit: UnitPerShare},
		{name: "avg cost", unit: UnitPerShare},
		{name: "price paid", unit: UnitPerShare},
		{name: "average buy price", unit: UnitPerShare},
	},
	FieldPrice: {
		{name: "price"}, {name: "current price"}, {name: "last price"},
	},
	FieldMarketValue: {
		{name: "market value"}, {name: "current value"}, {name: "value"},
	},
}

// keywords drive the substring fallback tier.
var keywords = map[Field][]string{
	FieldSymbol:      {"symbol", "ticker"},
	FieldShares:      {"share", "quantity", "qty", "unit"},
	FieldCostBasis:   {"cost", "basis", "paid"},
	FieldPrice:       {"price"},
	FieldMarketValue: {"value"},
}

// maxEditDistance bounds the fuzzy tier so it only catches small typos.
const maxEditDistance = 2

// Detect inspects a header row plus a few sample rows and proposes a mapping
// from source columns to canonical fields.
//
// Matching runs one field at a time in resolveOrder. For each field the
// tiers are: exact alias, substring containment of a field keyword, then
// edit distance to an alias. Within a tier the first matching column in
// file order wins. Symbol and shares are mandatory, and at least one of
// cost basis and price must resolve so a total cost can be derived.
func Detect(header []string, samples []model.RawRow) (Mapping, error) {
	normal := make([]string, len(header))
	for i, h := range header {
		normal[i] = NormalizeHeader(h)
	}

	mapping := make(Mapping, len(resolveOrder))
	claimed := make([]bool, len(header))

	for _, field := range resolveOrder {
		match, ok := resolveField(field, header, normal, claimed, samples)
		if !ok {
			continue
		}
		mapping[field] = match
		claimed[match.Index] = true
	}

	var missing []Field
	if _, ok := mapping[FieldSymbol]; !ok {
		missing = append(missing, FieldSymbol)
	}
	if _, ok := mapping[FieldShares]; !ok {
		missing = append(missing, FieldShares)
	}
	if len(missing) > 0 {
		return nil, &Error{Missing: missing}
	}

	_, hasCost := mapping[FieldCostBasis]
	_, hasPrice := mapping[FieldPrice]
	if !hasCost && !hasPrice {
		return nil, &Error{Missing: []Field{FieldCostBasis, FieldPrice}}
	}

	return mapping, nil
}

func resolveField(field Field, header, normal []string, claimed []bool, samples []model.RawRow) (Match, bool) {
	// Tier 1: exact alias.
	for i, h := range normal {
		if claimed[i] {
			continue
		}
		for _, a := range aliases[field] {
			if h == a.name {
				return Match{Column: header[i], Index: i, Confidence: Exact, Unit: a.unit}, true
			}
		}
	}

	// Tier 2: substring containment.
	for i, h := range normal {
		if claimed[i] || h == "" {
			continue
		}
		for _, kw := range keywords[field] {
			if strings.Contains(h, kw) && sampleFits(field, i, samples) {
				return Match{Column: header[i], Index: i, Confidence: Heuristic}, true
			}
		}
	}

	// Tier 3: small edit distance to an alias, for typo'd headers.
	for i, h := range normal {
		if claimed[i] || len(h) < 4 {
			continue
		}
		for _, a := range aliases[field] {
			if len(a.name) < 4 {
				continue
			}
			if levenshtein.ComputeDistance(h, a.name) <= maxEditDistance && sampleFits(field, i, samples) {
				return Match{Column: header[i], Index: i, Confidence: Heuristic}, true
			}
		}
	}

	return Match{}, false
}

// sampleFits rejects heuristic candidates that sample values contradict:
// a column whose values all parse as numbers cannot be the symbol column.
func sampleFits(field Field, col int, samples []model.RawRow) bool {
	if field != FieldSymbol {
		return true
	}
	seen := false
	for _, row := range samples {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		seen = true
		if !looksNumeric(v) {
			return true
		}
	}
	return !seen
}

func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == ',' || r == '-' || r == '+' || r == '$':
		default:
			return false
		}
	}
	return true
}

// NormalizeHeader lower-cases a header and collapses punctuation so
// "Cost_Basis", "cost-basis" and "Cost Basis" all compare equal.
func NormalizeHeader(h string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}
