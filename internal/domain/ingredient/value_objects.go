// Package ingredient holds the ingredient-line normalization core: quantity
// parsing, line tokenization, unit conversion and density lookup.
// Everything in this package is pure and safe for concurrent use.
package ingredient

// Dimension is the physical dimension a unit measures
type Dimension string

const (
	DimensionVolume Dimension = "volume"
	DimensionMass   Dimension = "mass"
)

// BaseUnit returns the unit every quantity of the dimension is expressed in
func (d Dimension) BaseUnit() string {
	switch d {
	case DimensionVolume:
		return "milliliter"
	case DimensionMass:
		return "gram"
	default:
		return ""
	}
}

// Valid reports whether d is a known dimension
func (d Dimension) Valid() bool {
	return d == DimensionVolume || d == DimensionMass
}

// ConversionStatus is the terminal state of the normalization pipeline
type ConversionStatus string

const (
	StatusConverted          ConversionStatus = "converted"
	StatusUnitUnrecognized   ConversionStatus = "unit_unrecognized"
	StatusDensityUnavailable ConversionStatus = "density_unavailable"
	StatusNoQuantity         ConversionStatus = "no_quantity"
)

// AllStatuses lists every conversion status in pipeline order
var AllStatuses = []ConversionStatus{
	StatusConverted,
	StatusUnitUnrecognized,
	StatusDensityUnavailable,
	StatusNoQuantity,
}

// Category is the coarse Dry/Wet classification of an ingredient
type Category string

const (
	CategoryDry     Category = "dry"
	CategoryWet     Category = "wet"
	CategoryUnknown Category = "unknown"
)

// ParsedIngredient is one ingredient line split into its parts.
// Quantity is nil only when no leading numeric token was found.
type ParsedIngredient struct {
	Quantity   *float64 `json:"quantity"`
	Unit       string   `json:"unit,omitempty"`
	Name       string   `json:"name,omitempty"`
	Original   string   `json:"original"`
	Ambiguous  bool     `json:"ambiguous,omitempty"`
	Confidence float64  `json:"confidence"`
}

// HasQuantity reports whether a quantity was parsed
func (p ParsedIngredient) HasQuantity() bool {
	return p.Quantity != nil
}

// NormalizedIngredient is a parsed line plus its gram equivalent.
// Grams is set if and only if Status is StatusConverted.
type NormalizedIngredient struct {
	ParsedIngredient
	CanonicalUnit string           `json:"canonical_unit,omitempty"`
	Dimension     Dimension        `json:"dimension,omitempty"`
	Grams         *float64         `json:"grams"`
	Status        ConversionStatus `json:"status"`
	Diagnostic    string           `json:"diagnostic,omitempty"`
	Category      Category         `json:"category"`
}

// Converted reports whether a gram value is available
func (n NormalizedIngredient) Converted() bool {
	return n.Status == StatusConverted && n.Grams != nil
}

// Clone returns a copy of n that shares no pointers with it
func (n NormalizedIngredient) Clone() NormalizedIngredient {
	if n.Quantity != nil {
		n.Quantity = floatPtr(*n.Quantity)
	}
	if n.Grams != nil {
		n.Grams = floatPtr(*n.Grams)
	}
	return n
}

// BaseQuantity is a quantity expressed in its dimension's base unit
type BaseQuantity struct {
	Value     float64
	Dimension Dimension
}

func floatPtr(f float64) *float64 {
	return &f
}
