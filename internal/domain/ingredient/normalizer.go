package ingredient

import (
	"fmt"
	"strings"
)

const (
	confidenceCertain   = 1.0
	confidenceAmbiguous = 0.5
)

// Normalizer turns raw ingredient lines into normalized records. It holds
// read-only reference tables and may be shared by any number of goroutines.
type Normalizer struct {
	units     *UnitTable
	densities *DensityTable
	tokenizer *Tokenizer
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithUnitTable overrides the built-in unit table
func WithUnitTable(units *UnitTable) Option {
	return func(n *Normalizer) {
		n.units = units
	}
}

// WithDensityTable overrides the built-in density table
func WithDensityTable(densities *DensityTable) Option {
	return func(n *Normalizer) {
		n.densities = densities
	}
}

// NewNormalizer creates a normalizer using the built-in tables unless
// overridden
func NewNormalizer(opts ...Option) (*Normalizer, error) {
	n := &Normalizer{
		units:     DefaultUnitTable(),
		densities: DefaultDensityTable(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.units == nil || n.densities == nil {
		return nil, ErrNilTable
	}
	n.tokenizer = NewTokenizer(n.units)
	return n, nil
}

var defaultNormalizer, _ = NewNormalizer()

// DefaultNormalizer returns a normalizer over the built-in tables
func DefaultNormalizer() *Normalizer {
	return defaultNormalizer
}

// Units returns the unit table in use
func (n *Normalizer) Units() *UnitTable {
	return n.units
}

// Densities returns the density table in use
func (n *Normalizer) Densities() *DensityTable {
	return n.densities
}

// Parse tokenizes a line and parses its quantity without converting it
func (n *Normalizer) Parse(line string) ParsedIngredient {
	tokens := n.tokenizer.Tokenize(line)

	parsed := ParsedIngredient{
		Unit:       tokens.Unit,
		Name:       tokens.Name,
		Original:   line,
		Ambiguous:  tokens.Ambiguous,
		Confidence: confidenceCertain,
	}
	if tokens.Ambiguous {
		parsed.Confidence = confidenceAmbiguous
	}
	if tokens.Quantity != "" {
		if q, ok := ParseQuantity(tokens.Quantity); ok {
			parsed.Quantity = floatPtr(q)
		}
	}
	return parsed
}

// Normalize parses one line and converts its quantity to grams when the
// unit and, for volumes, the density are known. It never fails: every
// outcome is reported through the Status of the result.
func (n *Normalizer) Normalize(line string) NormalizedIngredient {
	return n.convert(n.Parse(line))
}

// NormalizeAll normalizes lines in order
func (n *Normalizer) NormalizeAll(lines []string) []NormalizedIngredient {
	out := make([]NormalizedIngredient, len(lines))
	for i, line := range lines {
		out[i] = n.Normalize(line)
	}
	return out
}

// NormalizeParts normalizes a line that was already split into quantity,
// unit and name, as recipe markup often provides
func (n *Normalizer) NormalizeParts(quantity, unit, name string) NormalizedIngredient {
	quantity = strings.TrimSpace(quantity)
	unit = strings.TrimSpace(unit)
	name = strings.TrimSpace(name)

	parsed := ParsedIngredient{
		Unit:       unit,
		Name:       name,
		Original:   joinNonEmpty(quantity, unit, name),
		Confidence: confidenceCertain,
	}
	if q, ok := ParseQuantity(quantity); ok {
		parsed.Quantity = floatPtr(q)
	}
	return n.convert(parsed)
}

func (n *Normalizer) convert(parsed ParsedIngredient) NormalizedIngredient {
	result := NormalizedIngredient{ParsedIngredient: parsed}

	unit, known := n.units.Lookup(parsed.Unit)
	if known {
		result.CanonicalUnit = unit.Name
		result.Dimension = unit.Dimension
	}
	result.Category = Categorize(parsed.Name, result.CanonicalUnit)

	if !parsed.HasQuantity() {
		result.Status = StatusNoQuantity
		result.Diagnostic = "no leading quantity found"
		return result
	}

	if !known {
		result.Status = StatusUnitUnrecognized
		if parsed.Unit == "" {
			result.Diagnostic = "no unit given"
		} else {
			result.Diagnostic = fmt.Sprintf("unit %q not recognized", parsed.Unit)
		}
		return result
	}

	base := *parsed.Quantity * unit.Factor
	if unit.Dimension == DimensionMass {
		result.Grams = floatPtr(base)
		result.Status = StatusConverted
		return result
	}

	density, err := n.densities.Density(parsed.Name)
	if err != nil {
		result.Status = StatusDensityUnavailable
		result.Diagnostic = fmt.Sprintf("no density for %q", CanonicalizeName(parsed.Name))
		return result
	}

	result.Grams = floatPtr(base * density)
	result.Status = StatusConverted
	return result
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
