// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"sort"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
)

// IngredientLine is a generated ingredient line together with the outcome
// normalizing it must produce
type IngredientLine struct {
	Line     string
	Quantity float64
	Unit     string // canonical unit name, empty when none
	Name     string
	Status   ingredient.ConversionStatus
	Grams    float64 // set when Status is converted
}

// IngredientLineFactory generates ingredient lines against a pair of
// reference tables
type IngredientLineFactory struct {
	faker     *gofakeit.Faker
	units     []ingredient.Unit
	table     *ingredient.UnitTable
	densities *ingredient.DensityTable
	names     []string
}

// NewIngredientLineFactory creates a factory over the built-in tables with
// a seeded faker, so a seed always yields the same lines
func NewIngredientLineFactory(seed int64) *IngredientLineFactory {
	return NewIngredientLineFactoryWithTables(seed, ingredient.DefaultUnitTable(), ingredient.DefaultDensityTable())
}

// NewIngredientLineFactoryWithTables creates a factory over custom tables
func NewIngredientLineFactoryWithTables(seed int64, units *ingredient.UnitTable, densities *ingredient.DensityTable) *IngredientLineFactory {
	names := densities.Names()
	sort.Strings(names)
	return &IngredientLineFactory{
		faker:     gofakeit.New(seed),
		units:     units.Units(),
		table:     units,
		densities: densities,
		names:     names,
	}
}

var quantityForms = []string{"1/2", "1/4", "3/4", "1/3", "2/3", "½", "¼", "¾"}

// quantity returns a quantity token and its value
func (f *IngredientLineFactory) quantity() (string, float64) {
	var text string
	switch f.faker.Number(0, 3) {
	case 0:
		text = fmt.Sprintf("%d", f.faker.Number(1, 12))
	case 1:
		text = fmt.Sprintf("%.2f", f.faker.Float64Range(0.25, 10))
	case 2:
		text = f.faker.RandomString(quantityForms)
	default:
		text = fmt.Sprintf("%d %s", f.faker.Number(1, 3), f.faker.RandomString(quantityForms[:5]))
	}
	value, ok := ingredient.ParseQuantity(text)
	if !ok {
		panic("testutils: generated unparseable quantity " + text)
	}
	return text, value
}

// spelling picks the name or one of the synonyms of u
func (f *IngredientLineFactory) spelling(u ingredient.Unit) string {
	return f.faker.RandomString(append([]string{u.Name}, u.Synonyms...))
}

func (f *IngredientLineFactory) unitOf(dim ingredient.Dimension) ingredient.Unit {
	var matching []ingredient.Unit
	for _, u := range f.units {
		if u.Dimension == dim {
			matching = append(matching, u)
		}
	}
	return matching[f.faker.Number(0, len(matching)-1)]
}

// unknownName returns a lowercase name with no density entry
func (f *IngredientLineFactory) unknownName() string {
	for {
		name := fmt.Sprintf("%s %s", f.faker.AdjectiveDescriptive(), f.faker.NounConcrete())
		if _, err := f.densities.Density(name); err != nil {
			return ingredient.CanonicalizeName(name)
		}
	}
}

// Converted returns a line with a known unit whose grams can be computed:
// a mass unit with any name, or a volume unit with a name in the density
// table
func (f *IngredientLineFactory) Converted() IngredientLine {
	text, q := f.quantity()

	if len(f.names) == 0 || f.faker.Bool() {
		u := f.unitOf(ingredient.DimensionMass)
		name := f.unknownName()
		return IngredientLine{
			Line:     fmt.Sprintf("%s %s %s", text, f.spelling(u), name),
			Quantity: q,
			Unit:     u.Name,
			Name:     name,
			Status:   ingredient.StatusConverted,
			Grams:    q * u.Factor,
		}
	}

	u := f.unitOf(ingredient.DimensionVolume)
	name := f.faker.RandomString(f.names)
	density, _ := f.densities.Density(name)
	return IngredientLine{
		Line:     fmt.Sprintf("%s %s %s", text, f.spelling(u), name),
		Quantity: q,
		Unit:     u.Name,
		Name:     name,
		Status:   ingredient.StatusConverted,
		Grams:    q * u.Factor * density,
	}
}

// DensityUnavailable returns a volume line naming an ingredient with no
// density entry
func (f *IngredientLineFactory) DensityUnavailable() IngredientLine {
	text, q := f.quantity()
	u := f.unitOf(ingredient.DimensionVolume)
	name := f.unknownName()
	return IngredientLine{
		Line:     fmt.Sprintf("%s %s %s", text, f.spelling(u), name),
		Quantity: q,
		Unit:     u.Name,
		Name:     name,
		Status:   ingredient.StatusDensityUnavailable,
	}
}

var unknownUnits = []string{"smidgen", "handful", "sprig", "clove", "knob", "splash", "bunch"}

// UnitUnrecognized returns a line whose unit is not in the table
func (f *IngredientLineFactory) UnitUnrecognized() IngredientLine {
	text, q := f.quantity()
	var unit string
	for {
		unit = f.faker.RandomString(unknownUnits)
		if _, known := f.table.Lookup(unit); !known {
			break
		}
	}
	name := f.unknownName()
	return IngredientLine{
		Line:     fmt.Sprintf("%s %s %s", text, unit, name),
		Quantity: q,
		Name:     name,
		Status:   ingredient.StatusUnitUnrecognized,
	}
}

// NoQuantity returns a line with no leading quantity
func (f *IngredientLineFactory) NoQuantity() IngredientLine {
	name := f.unknownName()
	line := f.faker.RandomString([]string{"%s to taste", "%s for garnish", "fresh %s, as needed"})
	line = fmt.Sprintf(line, name)
	return IngredientLine{
		Line:   line,
		Name:   line,
		Status: ingredient.StatusNoQuantity,
	}
}

// Any returns a line with a random outcome
func (f *IngredientLineFactory) Any() IngredientLine {
	switch f.faker.Number(0, 3) {
	case 0:
		return f.Converted()
	case 1:
		return f.DensityUnavailable()
	case 2:
		return f.UnitUnrecognized()
	default:
		return f.NoQuantity()
	}
}

// Lines returns n lines with random outcomes
func (f *IngredientLineFactory) Lines(n int) []IngredientLine {
	out := make([]IngredientLine, n)
	for i := range out {
		out[i] = f.Any()
	}
	return out
}

// Texts returns the raw text of lines
func Texts(lines []IngredientLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Line
	}
	return out
}
