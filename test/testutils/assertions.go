// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/ports/inbound"
)

// gramsTolerance is relative to the expected weight
const gramsTolerance = 1e-9

// IngredientAssertions provides ingredient-specific assertion methods
type IngredientAssertions struct {
	t *testing.T
}

// NewIngredientAssertions creates a new ingredient assertions helper
func NewIngredientAssertions(t *testing.T) *IngredientAssertions {
	return &IngredientAssertions{t: t}
}

// Matches asserts that got is the outcome generated for want
func (ia *IngredientAssertions) Matches(want IngredientLine, got ingredient.NormalizedIngredient, msgAndArgs ...interface{}) {
	ia.t.Helper()

	assert.Equal(ia.t, want.Line, got.Original, msgAndArgs...)
	require.Equal(ia.t, want.Status, got.Status, append([]interface{}{"line %q", want.Line}, msgAndArgs...)...)

	if want.Status == ingredient.StatusNoQuantity {
		assert.Nil(ia.t, got.Quantity, msgAndArgs...)
		assert.Nil(ia.t, got.Grams, msgAndArgs...)
		return
	}

	require.NotNil(ia.t, got.Quantity, msgAndArgs...)
	assert.InDelta(ia.t, want.Quantity, *got.Quantity, 1e-9, msgAndArgs...)
	assert.Equal(ia.t, want.Unit, got.CanonicalUnit, msgAndArgs...)
	assert.Equal(ia.t, want.Name, got.Name, msgAndArgs...)

	if want.Status == ingredient.StatusConverted {
		ia.Grams(got, want.Grams, msgAndArgs...)
		return
	}
	assert.Nil(ia.t, got.Grams, msgAndArgs...)
	assert.NotEmpty(ia.t, got.Diagnostic, msgAndArgs...)
}

// Grams asserts a converted weight
func (ia *IngredientAssertions) Grams(got ingredient.NormalizedIngredient, want float64, msgAndArgs ...interface{}) {
	ia.t.Helper()

	require.NotNil(ia.t, got.Grams, msgAndArgs...)
	assert.InEpsilon(ia.t, want, *got.Grams, gramsTolerance, msgAndArgs...)
	assert.GreaterOrEqual(ia.t, *got.Grams, 0.0, msgAndArgs...)
}

// Batch asserts that result holds the outcomes of lines in input order and
// that its summary agrees with its items
func (ia *IngredientAssertions) Batch(lines []IngredientLine, result *inbound.BatchResult) {
	ia.t.Helper()

	require.NotNil(ia.t, result)
	require.Len(ia.t, result.Items, len(lines))
	assert.Equal(ia.t, len(lines), result.Total)
	assert.NotEmpty(ia.t, result.BatchID)

	counts := make(map[ingredient.ConversionStatus]int)
	for i, line := range lines {
		ia.Matches(line, result.Items[i].NormalizedIngredient, "item %d", i)
		counts[line.Status]++
	}
	for _, status := range ingredient.AllStatuses {
		assert.Equal(ia.t, counts[status], result.Summary[status], "summary for %s", status)
	}
}
