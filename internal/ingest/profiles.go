package ingest

import (
	"strings"

	"github.com/wealthtrack-dev/wealthtrack/internal/schema"
)

// Profile identifies a known broker export format by telltale header
// columns. Matching a profile only stamps the source label; column mapping
// stays with the schema detector so unrecognized exports still import.
type Profile struct {
	Name    string
	Label   string
	markers []string // normalized headers that together identify the format
}

// Matches reports whether every marker appears in the header.
func (p *Profile) Matches(header []string) bool {
	if len(p.markers) == 0 {
		return true
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[schema.NormalizeHeader(h)] = true
	}
	for _, m := range p.markers {
		if !present[m] {
			return false
		}
	}
	return true
}

// Registry holds broker profiles in match-priority order.
type Registry struct {
	profiles []*Profile
	byName   map[string]*Profile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Profile)}
}

// Register adds a profile. Panics on a duplicate name.
func (r *Registry) Register(p *Profile) {
	key := strings.ToLower(p.Name)
	if _, ok := r.byName[key]; ok {
		panic("duplicate profile name: " + key)
	}
	r.byName[key] = p
	r.profiles = append(r.profiles, p)
}

// Get returns the profile with the given name, or nil.
func (r *Registry) Get(name string) *Profile {
	return r.byName[strings.ToLower(name)]
}

// Match returns the first registered profile whose markers all appear in the
// header. The generic profile matches everything, so Match never returns nil
// on a DefaultRegistry.
func (r *Registry) Match(header []string) *Profile {
	for _, p := range r.profiles {
		if p.Matches(header) {
			return p
		}
	}
	return &Profile{Name: "generic", Label: ""}
}

// DefaultRegistry returns the built-in broker profiles, most specific first.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Profile{
		Name:    "sofi",
		Label:   "sofi",
		markers: []string{"symbol", "shares", "cost basis", "market value"},
	})
	r.Register(&Profile{
		Name:    "fidelity",
		Label:   "fidelity",
		markers: []string{"symbol", "quantity", "price paid"},
	})
	r.Register(&Profile{
		Name:    "robinhood",
		Label:   "robinhood",
		markers: []string{"instrument", "quantity", "average buy price"},
	})
	r.Register(&Profile{Name: "generic", Label: ""})
	return r
}
