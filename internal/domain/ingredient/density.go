package ingredient

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DensityTable maps canonical ingredient names to densities in g/mL.
// Lookups are exact after canonicalization; a table never changes after
// construction.
type DensityTable struct {
	densities map[string]float64
}

// NewDensityTable builds a table, canonicalizing every name
func NewDensityTable(densities map[string]float64) (*DensityTable, error) {
	t := &DensityTable{densities: make(map[string]float64, len(densities))}
	for name, density := range densities {
		key := CanonicalizeName(name)
		if key == "" {
			return nil, fmt.Errorf("empty ingredient name: %w", ErrInvalidDensity)
		}
		if density <= 0 || math.IsNaN(density) || math.IsInf(density, 0) {
			return nil, fmt.Errorf("ingredient %q: %w", name, ErrInvalidDensity)
		}
		t.densities[key] = density
	}
	return t, nil
}

// MustNewDensityTable is like NewDensityTable but panics on invalid entries
func MustNewDensityTable(densities map[string]float64) *DensityTable {
	t, err := NewDensityTable(densities)
	if err != nil {
		panic(err)
	}
	return t
}

// Merge returns a new table with extra entries added or overridden
func (t *DensityTable) Merge(extra map[string]float64) (*DensityTable, error) {
	merged := make(map[string]float64, len(t.densities)+len(extra))
	for name, density := range t.densities {
		merged[name] = density
	}
	for name, density := range extra {
		merged[CanonicalizeName(name)] = density
	}
	return NewDensityTable(merged)
}

// Density returns the density of an ingredient in g/mL
func (t *DensityTable) Density(name string) (float64, error) {
	density, ok := t.densities[CanonicalizeName(name)]
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrDensityUnavailable)
	}
	return density, nil
}

// Entries returns a copy of the table
func (t *DensityTable) Entries() map[string]float64 {
	out := make(map[string]float64, len(t.densities))
	for name, density := range t.densities {
		out[name] = density
	}
	return out
}

// Names returns the ingredient names in sorted order
func (t *DensityTable) Names() []string {
	names := make([]string, 0, len(t.densities))
	for name := range t.densities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of ingredients with a known density
func (t *DensityTable) Len() int {
	return len(t.densities)
}

// CanonicalizeName lowercases and trims an ingredient name
func CanonicalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// DefaultDensities is the built-in density table in g/mL
func DefaultDensities() map[string]float64 {
	return map[string]float64{
		"all-purpose flour": 0.593,
		"sugar":             0.845,
		"brown sugar":       0.721,
		"butter":            0.911,
		"milk":              1.03,
		"water":             1.0,
		"honey":             1.42,
		"olive oil":         0.91,
		"salt":              1.2,
		"ricotta cheese":    1.03,
	}
}

var defaultDensityTable = MustNewDensityTable(DefaultDensities())

// DefaultDensityTable returns the shared built-in density table
func DefaultDensityTable() *DensityTable {
	return defaultDensityTable
}
