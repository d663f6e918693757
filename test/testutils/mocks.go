// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/ports/outbound"
)

// MockMetricsRecorder is a mock implementation of outbound.MetricsRecorder
type MockMetricsRecorder struct {
	mock.Mock
}

var _ outbound.MetricsRecorder = (*MockMetricsRecorder)(nil)

// NewMockMetricsRecorder creates a new mock metrics recorder
func NewMockMetricsRecorder() *MockMetricsRecorder {
	return &MockMetricsRecorder{}
}

func (m *MockMetricsRecorder) RecordNormalization(status ingredient.ConversionStatus, duration time.Duration) {
	m.Called(status, duration)
}

func (m *MockMetricsRecorder) RecordBatch(size int, duration time.Duration) {
	m.Called(size, duration)
}

func (m *MockMetricsRecorder) RecordCacheLookup(hit bool) {
	m.Called(hit)
}

func (m *MockMetricsRecorder) RecordReferenceReload(success bool) {
	m.Called(success)
}

// SetupStandardMockBehavior accepts any call, so tests only assert the
// calls they care about
func (m *MockMetricsRecorder) SetupStandardMockBehavior() {
	m.On("RecordNormalization", mock.Anything, mock.Anything).Maybe()
	m.On("RecordBatch", mock.Anything, mock.Anything).Maybe()
	m.On("RecordCacheLookup", mock.Anything).Maybe()
	m.On("RecordReferenceReload", mock.Anything).Maybe()
}

// MockRecipeSource is a mock implementation of outbound.RecipeSource
type MockRecipeSource struct {
	mock.Mock
}

var _ outbound.RecipeSource = (*MockRecipeSource)(nil)

// NewMockRecipeSource creates a new mock recipe source
func NewMockRecipeSource() *MockRecipeSource {
	return &MockRecipeSource{}
}

func (m *MockRecipeSource) Extract(ctx context.Context) (*outbound.ExtractedRecipe, error) {
	args := m.Called(ctx)
	if recipe := args.Get(0); recipe != nil {
		return recipe.(*outbound.ExtractedRecipe), args.Error(1)
	}
	return nil, args.Error(1)
}

// ReturnsLines makes the source yield a recipe built from lines
func (m *MockRecipeSource) ReturnsLines(title string, lines ...string) *mock.Call {
	recipe := &outbound.ExtractedRecipe{Title: title}
	for _, line := range lines {
		recipe.Ingredients = append(recipe.Ingredients, outbound.ExtractedIngredient{Line: line})
	}
	return m.On("Extract", mock.Anything).Return(recipe, nil)
}
