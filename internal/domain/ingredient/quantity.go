package ingredient

import (
	"math"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fractionSlash is what NFKC turns the slash inside a vulgar fraction glyph into
const fractionSlash = '⁄'

var (
	// decimalPattern accepts plain and signed decimals with an optional exponent
	decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d{1,3})?$`)
	// fractionPattern accepts a simple a/b fraction
	fractionPattern = regexp.MustCompile(`^[+-]?\d+/\d+$`)
	// integerPattern accepts the whole-number part of a mixed number
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
)

// ParseQuantity converts a textual quantity into a number. It understands
// integers ("3"), decimals ("1.5"), fractions ("1/2"), unicode vulgar
// fractions ("½") and mixed numbers ("1 1/2", "1½"). It returns false
// for anything else, including an empty token or a zero denominator.
func ParseQuantity(token string) (float64, bool) {
	s := normalizeQuantityText(token)
	if s == "" {
		return 0, false
	}

	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		r, ok := parseRational(parts[0])
		if !ok {
			return 0, false
		}
		return ratToFloat(r)
	case 2:
		whole, ok := parseInteger(parts[0])
		if !ok {
			return 0, false
		}
		frac, ok := parseFraction(parts[1])
		if !ok || frac.Sign() < 0 {
			return 0, false
		}
		if whole.Sign() < 0 {
			frac.Neg(frac)
		}
		return ratToFloat(new(big.Rat).Add(whole, frac))
	default:
		return 0, false
	}
}

// isFractionToken reports whether token is a bare fraction such as "1/2" or "½"
func isFractionToken(token string) bool {
	s := normalizeQuantityText(token)
	_, ok := parseFraction(s)
	return ok
}

// isIntegerToken reports whether token is a whole number, optionally signed
func isIntegerToken(token string) bool {
	return integerPattern.MatchString(token)
}

// normalizeQuantityText maps unicode digits, fraction glyphs and slashes to
// ASCII. A whole number glued to a fraction ("1½", "1¹⁄₂") is split into a
// mixed number.
func normalizeQuantityText(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(token) + 4)
	// wholeDigit is set while the last rune written ends a whole number
	wholeDigit := false
	for _, r := range token {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
			wholeDigit = unicode.IsDigit(r)
			continue
		}
		decomposed := norm.NFKC.String(string(r))
		// a glyph like ½ decomposes to "1⁄2"; a bare fraction slash does not start a numerator
		glyph := r != fractionSlash && strings.ContainsRune(decomposed, fractionSlash)
		superscript := isSuperscriptDigit(r)
		if wholeDigit && (glyph || superscript) {
			b.WriteByte(' ')
		}
		b.WriteString(decomposed)
		wholeDigit = !glyph && !superscript && endsWithDigit(decomposed)
	}

	s := strings.ReplaceAll(b.String(), string(fractionSlash), "/")
	return strings.TrimSpace(s)
}

// isSuperscriptDigit reports whether r is one of ⁰¹²³⁴⁵⁶⁷⁸⁹
func isSuperscriptDigit(r rune) bool {
	switch {
	case r == '\u00b9', r == '\u00b2', r == '\u00b3':
		return true
	case r == '\u2070', r >= '\u2074' && r <= '\u2079':
		return true
	default:
		return false
	}
}

func endsWithDigit(s string) bool {
	return s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9'
}

func parseInteger(s string) (*big.Rat, bool) {
	if !integerPattern.MatchString(s) {
		return nil, false
	}
	return new(big.Rat).SetString(s)
}

func parseRational(s string) (*big.Rat, bool) {
	if r, ok := parseFraction(s); ok {
		return r, true
	}
	return parseDecimal(s)
}

func parseDecimal(s string) (*big.Rat, bool) {
	if !decimalPattern.MatchString(s) {
		return nil, false
	}
	return new(big.Rat).SetString(s)
}

func parseFraction(s string) (*big.Rat, bool) {
	if !fractionPattern.MatchString(s) {
		return nil, false
	}
	// SetString rejects a zero denominator
	return new(big.Rat).SetString(s)
}

func ratToFloat(r *big.Rat) (float64, bool) {
	f, _ := r.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
