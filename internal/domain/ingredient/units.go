package ingredient

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Unit describes one canonical unit and every spelling that maps to it.
// Factor expresses one unit in the base unit of its dimension
// (milliliters for volume, grams for mass).
type Unit struct {
	Name      string    `json:"name" yaml:"name"`
	Dimension Dimension `json:"dimension" yaml:"dimension"`
	Factor    float64   `json:"factor" yaml:"factor"`
	Synonyms  []string  `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
}

// Validate validates the unit definition
func (u Unit) Validate() error {
	if CanonicalizeUnit(u.Name) == "" {
		return ErrEmptyUnitName
	}
	if !u.Dimension.Valid() {
		return fmt.Errorf("unit %q: %w", u.Name, ErrInvalidDimension)
	}
	if u.Factor <= 0 || math.IsNaN(u.Factor) || math.IsInf(u.Factor, 0) {
		return fmt.Errorf("unit %q: %w", u.Name, ErrInvalidFactor)
	}
	return nil
}

// UnitTable maps unit spellings to canonical units. A table never changes
// after construction; Merge returns a new one.
type UnitTable struct {
	units     []Unit
	bySpell   map[string]int
	multiWord [][]string
}

// NewUnitTable builds a table from unit definitions. Every definition must
// be valid and no spelling may be claimed by two units.
func NewUnitTable(units ...Unit) (*UnitTable, error) {
	t := &UnitTable{
		units:   make([]Unit, 0, len(units)),
		bySpell: make(map[string]int),
	}

	for _, u := range units {
		if err := u.Validate(); err != nil {
			return nil, err
		}

		u.Name = CanonicalizeUnit(u.Name)
		u.Synonyms = append([]string(nil), u.Synonyms...)
		idx := len(t.units)

		for _, spelling := range append([]string{u.Name}, u.Synonyms...) {
			key := CanonicalizeUnit(spelling)
			if key == "" {
				continue
			}
			if prev, exists := t.bySpell[key]; exists && prev != idx {
				return nil, fmt.Errorf("%q claimed by %q and %q: %w",
					key, t.units[prev].Name, u.Name, ErrDuplicateUnit)
			}
			t.bySpell[key] = idx
			if words := strings.Fields(key); len(words) > 1 {
				t.multiWord = append(t.multiWord, words)
			}
		}

		t.units = append(t.units, u)
	}

	// Longest spellings first so "fluid ounces" wins over "fl"
	sort.SliceStable(t.multiWord, func(i, j int) bool {
		return len(t.multiWord[i]) > len(t.multiWord[j])
	})

	return t, nil
}

// MustNewUnitTable is like NewUnitTable but panics on invalid definitions
func MustNewUnitTable(units ...Unit) *UnitTable {
	t, err := NewUnitTable(units...)
	if err != nil {
		panic(err)
	}
	return t
}

// Merge returns a new table holding t's units overridden by units.
// A unit whose canonical name matches an existing one replaces it.
func (t *UnitTable) Merge(units ...Unit) (*UnitTable, error) {
	replaced := make(map[string]bool, len(units))
	for _, u := range units {
		replaced[CanonicalizeUnit(u.Name)] = true
	}

	merged := make([]Unit, 0, len(t.units)+len(units))
	for _, u := range t.units {
		if !replaced[u.Name] {
			merged = append(merged, u)
		}
	}
	merged = append(merged, units...)

	return NewUnitTable(merged...)
}

// Lookup finds the canonical unit for any spelling, case-insensitively
func (t *UnitTable) Lookup(unit string) (Unit, bool) {
	idx, ok := t.bySpell[CanonicalizeUnit(unit)]
	if !ok {
		return Unit{}, false
	}
	return t.units[idx], true
}

// ToBaseUnits expresses quantity in milliliters or grams
func (t *UnitTable) ToBaseUnits(quantity float64, unit string) (BaseQuantity, error) {
	u, ok := t.Lookup(unit)
	if !ok {
		return BaseQuantity{}, fmt.Errorf("%q: %w", unit, ErrUnitUnrecognized)
	}
	return BaseQuantity{Value: quantity * u.Factor, Dimension: u.Dimension}, nil
}

// Convert re-expresses quantity from one unit in another unit of the same
// dimension, routing through the shared base unit
func (t *UnitTable) Convert(quantity float64, from, to string) (float64, error) {
	src, ok := t.Lookup(from)
	if !ok {
		return 0, fmt.Errorf("%q: %w", from, ErrUnitUnrecognized)
	}
	dst, ok := t.Lookup(to)
	if !ok {
		return 0, fmt.Errorf("%q: %w", to, ErrUnitUnrecognized)
	}
	if src.Dimension != dst.Dimension {
		return 0, fmt.Errorf("%s is %s, %s is %s: %w",
			src.Name, src.Dimension, dst.Name, dst.Dimension, ErrDimensionMismatch)
	}
	return quantity * src.Factor / dst.Factor, nil
}

// ConvertAll expresses quantity in every canonical unit sharing the
// dimension of unit, keyed by canonical unit name
func (t *UnitTable) ConvertAll(quantity float64, unit string) (map[string]float64, error) {
	src, ok := t.Lookup(unit)
	if !ok {
		return nil, fmt.Errorf("%q: %w", unit, ErrUnitUnrecognized)
	}

	out := make(map[string]float64)
	for _, u := range t.units {
		if u.Dimension == src.Dimension {
			out[u.Name] = quantity * src.Factor / u.Factor
		}
	}
	return out, nil
}

// Units returns a copy of the canonical units in registration order
func (t *UnitTable) Units() []Unit {
	out := make([]Unit, len(t.units))
	for i, u := range t.units {
		u.Synonyms = append([]string(nil), u.Synonyms...)
		out[i] = u
	}
	return out
}

// Len returns the number of canonical units
func (t *UnitTable) Len() int {
	return len(t.units)
}

// MultiWordSynonyms returns the spellings made of more than one word,
// longest first, each split into lowercase words
func (t *UnitTable) MultiWordSynonyms() [][]string {
	out := make([][]string, len(t.multiWord))
	for i, words := range t.multiWord {
		out[i] = append([]string(nil), words...)
	}
	return out
}

// CanonicalizeUnit lowercases and trims a unit spelling, collapses inner
// whitespace and drops trailing periods and commas ("Tbsp." -> "tbsp")
func CanonicalizeUnit(unit string) string {
	s := strings.Join(strings.Fields(strings.ToLower(unit)), " ")
	return strings.TrimRight(s, ".,")
}

// DefaultUnits is the built-in synonym table. It is the union of the
// spellings seen in scraped recipe text, including "fl oz".
func DefaultUnits() []Unit {
	return []Unit{
		// Volume, factors in milliliters
		{Name: "teaspoon", Dimension: DimensionVolume, Factor: 4.92892,
			Synonyms: []string{"teaspoons", "tsp", "tsps", "tsp.", "tspn"}},
		{Name: "tablespoon", Dimension: DimensionVolume, Factor: 14.7868,
			Synonyms: []string{"tablespoons", "tbsp", "tbsps", "tbs", "tbl", "tbls", "tblsp"}},
		{Name: "fluid ounce", Dimension: DimensionVolume, Factor: 29.5735,
			Synonyms: []string{"fluid ounces", "fl oz", "fl. oz", "fl.oz", "floz", "fl ounce", "fl ounces"}},
		{Name: "cup", Dimension: DimensionVolume, Factor: 240.0,
			Synonyms: []string{"cups", "c"}},
		{Name: "pint", Dimension: DimensionVolume, Factor: 473.176,
			Synonyms: []string{"pints", "pt", "pts"}},
		{Name: "quart", Dimension: DimensionVolume, Factor: 946.353,
			Synonyms: []string{"quarts", "qt", "qts"}},
		{Name: "gallon", Dimension: DimensionVolume, Factor: 3785.41,
			Synonyms: []string{"gallons", "gal", "gals"}},
		{Name: "milliliter", Dimension: DimensionVolume, Factor: 1.0,
			Synonyms: []string{"milliliters", "millilitre", "millilitres", "ml", "mls"}},
		{Name: "liter", Dimension: DimensionVolume, Factor: 1000.0,
			Synonyms: []string{"liters", "litre", "litres", "l"}},

		// Mass, factors in grams
		{Name: "milligram", Dimension: DimensionMass, Factor: 0.001,
			Synonyms: []string{"milligrams", "milligramme", "milligrammes", "mg"}},
		{Name: "gram", Dimension: DimensionMass, Factor: 1.0,
			Synonyms: []string{"grams", "gramme", "grammes", "g", "gr"}},
		{Name: "kilogram", Dimension: DimensionMass, Factor: 1000.0,
			Synonyms: []string{"kilograms", "kilogramme", "kilogrammes", "kg", "kgs", "kilo", "kilos"}},
		{Name: "ounce", Dimension: DimensionMass, Factor: 28.3495,
			Synonyms: []string{"ounces", "oz"}},
		{Name: "pound", Dimension: DimensionMass, Factor: 453.592,
			Synonyms: []string{"pounds", "lb", "lbs"}},
	}
}

var defaultUnitTable = MustNewUnitTable(DefaultUnits()...)

// DefaultUnitTable returns the shared built-in unit table
func DefaultUnitTable() *UnitTable {
	return defaultUnitTable
}
