package ingredient

import "strings"

var (
	dryKeywords = []string{"flour", "sugar", "salt", "baking powder", "cocoa powder", "cornstarch", "oats", "breadcrumbs"}
	wetKeywords = []string{"milk", "water", "oil", "juice", "honey", "vinegar", "syrup"}

	// liquidUnits are canonical units that imply a wet ingredient
	liquidUnits = map[string]bool{
		"gallon":      true,
		"quart":       true,
		"pint":        true,
		"cup":         true,
		"fluid ounce": true,
		"liter":       true,
		"milliliter":  true,
	}
)

// Categorize classifies an ingredient as dry or wet. Keywords found
// anywhere in the name win; otherwise liquid measures imply wet and any
// other recognized unit implies dry. This is a coarse classification and
// is never used to pick a density.
func Categorize(name, canonicalUnit string) Category {
	lower := strings.ToLower(name)
	for _, kw := range dryKeywords {
		if strings.Contains(lower, kw) {
			return CategoryDry
		}
	}
	for _, kw := range wetKeywords {
		if strings.Contains(lower, kw) {
			return CategoryWet
		}
	}

	switch {
	case canonicalUnit == "":
		return CategoryUnknown
	case liquidUnits[canonicalUnit]:
		return CategoryWet
	default:
		return CategoryDry
	}
}
