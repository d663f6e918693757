package ingredient

import "strings"

// Tokens is an ingredient line split by position. Empty fields are absent.
type Tokens struct {
	Quantity string
	Unit     string
	Name     string

	// Ambiguous marks a quantity-less line of exactly two words. Such a
	// line ("kosher salt") reads the same as a quantity/unit pair with a
	// word in the quantity slot, so the split cannot be trusted.
	Ambiguous bool
}

// Tokenizer splits raw ingredient lines into quantity, unit and name.
// Multi-word unit spellings known to its unit table ("fl oz") are kept
// together as one unit token.
type Tokenizer struct {
	units    *UnitTable
	maxWords int
}

// NewTokenizer creates a tokenizer that recognizes the multi-word
// spellings of units
func NewTokenizer(units *UnitTable) *Tokenizer {
	if units == nil {
		units = DefaultUnitTable()
	}
	maxWords := 1
	for _, words := range units.MultiWordSynonyms() {
		if len(words) > maxWords {
			maxWords = len(words)
		}
	}
	return &Tokenizer{units: units, maxWords: maxWords}
}

var defaultTokenizer = NewTokenizer(DefaultUnitTable())

// Tokenize splits line using the default unit table
func Tokenize(line string) Tokens {
	return defaultTokenizer.Tokenize(line)
}

// Tokenize splits a line on whitespace. When the first token is a
// quantity the next token is taken as the unit and the rest as the name.
// Otherwise the whole trimmed line is the name.
func (t *Tokenizer) Tokenize(line string) Tokens {
	trimmed := strings.TrimSpace(line)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return Tokens{}
	}

	if _, ok := ParseQuantity(fields[0]); !ok {
		return Tokens{Name: trimmed, Ambiguous: len(fields) == 2}
	}

	tokens := Tokens{Quantity: fields[0]}
	rest := fields[1:]

	// "1 1/2 cups": whole number followed by a fraction
	if len(rest) > 0 && isIntegerToken(fields[0]) && isFractionToken(rest[0]) {
		tokens.Quantity = fields[0] + " " + rest[0]
		rest = rest[1:]
	}

	if len(rest) == 0 {
		return tokens
	}

	n := t.unitWords(rest)
	tokens.Unit = strings.Join(rest[:n], " ")
	tokens.Name = strings.Join(rest[n:], " ")
	return tokens
}

// unitWords returns how many leading words of rest form the unit token
func (t *Tokenizer) unitWords(rest []string) int {
	for n := min(t.maxWords, len(rest)); n > 1; n-- {
		if _, ok := t.units.Lookup(strings.Join(rest[:n], " ")); ok {
			return n
		}
	}
	return 1
}
