// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
)

// RecipeSource yields the ingredients of one recipe document
type RecipeSource interface {
	Extract(ctx context.Context) (*ExtractedRecipe, error)
}

// ExtractedRecipe is what a RecipeSource found in its document. An
// ingredient is either a free-text line or an already split triple.
type ExtractedRecipe struct {
	Title        string
	Ingredients  []ExtractedIngredient
	Instructions []string
}

// ExtractedIngredient is one ingredient found in a recipe document. Line
// is set for free text; Quantity, Unit and Name are set when the markup
// split the ingredient itself.
type ExtractedIngredient struct {
	Line     string
	Quantity string
	Unit     string
	Name     string
}

// IsSplit reports whether the ingredient came pre-split
func (e ExtractedIngredient) IsSplit() bool {
	return e.Line == "" && (e.Quantity != "" || e.Unit != "" || e.Name != "")
}

// ResultCache memoizes normalized lines
type ResultCache interface {
	Get(key string) (ingredient.NormalizedIngredient, bool)
	Set(key string, value ingredient.NormalizedIngredient)
	Clear()
}

// MetricsRecorder receives normalization telemetry
type MetricsRecorder interface {
	RecordNormalization(status ingredient.ConversionStatus, duration time.Duration)
	RecordBatch(size int, duration time.Duration)
	RecordCacheLookup(hit bool)
	RecordReferenceReload(success bool)
}

// NoopMetrics discards all telemetry
type NoopMetrics struct{}

func (NoopMetrics) RecordNormalization(ingredient.ConversionStatus, time.Duration) {}
func (NoopMetrics) RecordBatch(int, time.Duration)                                {}
func (NoopMetrics) RecordCacheLookup(bool)                                        {}
func (NoopMetrics) RecordReferenceReload(bool)                                    {}
