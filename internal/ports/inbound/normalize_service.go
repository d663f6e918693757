// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/ports/outbound"
)

// NormalizeService defines the use cases for ingredient normalization
// This is the primary port that HTTP handlers and the CLI use
type NormalizeService interface {
	// Normalization
	Normalize(ctx context.Context, line string) (*IngredientDTO, error)
	NormalizeBatch(ctx context.Context, lines []string) (*BatchResult, error)
	NormalizeParts(ctx context.Context, parts []PartsCommand) (*BatchResult, error)
	NormalizeRecipe(ctx context.Context, source outbound.RecipeSource) (*RecipeResult, error)

	// Unit arithmetic
	Convert(ctx context.Context, cmd ConvertCommand) (*ConversionDTO, error)
	EstimateCost(ctx context.Context, cmd CostCommand) (*CostDTO, error)

	// Reference data
	Units(ctx context.Context) []UnitDTO
	Densities(ctx context.Context) []DensityDTO
}

// Command objects for operations

// PartsCommand is an ingredient already split into quantity, unit and name
type PartsCommand struct {
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Name     string `json:"name" validate:"required"`
}

// ConvertCommand converts a quantity between two units of one dimension
type ConvertCommand struct {
	Quantity float64 `json:"quantity"`
	From     string  `json:"from" validate:"required"`
	To       string  `json:"to"`
}

// CostCommand prices an amount given a cost quoted per some unit
type CostCommand struct {
	Amount      float64 `json:"amount" validate:"gte=0"`
	Unit        string  `json:"unit" validate:"required"`
	CostPerUnit float64 `json:"cost_per_unit" validate:"gte=0"`
	CostUnit    string  `json:"cost_unit" validate:"required"`
}

// DTOs for responses

// IngredientDTO is one normalized ingredient line
type IngredientDTO struct {
	ingredient.NormalizedIngredient
}

// BatchResult holds normalized lines in input order
type BatchResult struct {
	BatchID string                              `json:"batch_id"`
	Items   []IngredientDTO                     `json:"items"`
	Summary map[ingredient.ConversionStatus]int `json:"summary"`
	Total   int                                 `json:"total"`
}

// RecipeResult is a recipe document with its ingredients normalized
type RecipeResult struct {
	Title        string       `json:"title,omitempty"`
	Instructions []string     `json:"instructions,omitempty"`
	Ingredients  *BatchResult `json:"ingredients"`
}

// ConversionDTO is the outcome of a unit conversion. Results holds every
// unit of the dimension when no target unit was requested.
type ConversionDTO struct {
	Quantity  float64              `json:"quantity"`
	From      string               `json:"from"`
	To        string               `json:"to,omitempty"`
	Dimension ingredient.Dimension `json:"dimension"`
	Result    *float64             `json:"result,omitempty"`
	Results   map[string]float64   `json:"results,omitempty"`
}

// CostDTO is a priced ingredient amount
type CostDTO struct {
	ingredient.CostEstimate
}

// UnitDTO describes a canonical unit
type UnitDTO struct {
	Name      string               `json:"name"`
	Dimension ingredient.Dimension `json:"dimension"`
	Factor    float64              `json:"factor"`
	Synonyms  []string             `json:"synonyms,omitempty"`
}

// DensityDTO describes a density entry in grams per milliliter
type DensityDTO struct {
	Name    string  `json:"name"`
	Density float64 `json:"density"`
}
