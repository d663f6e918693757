// Package recipesource reads recipes out of HTML documents. Structured
// schema.org JSON-LD is preferred; pages without it fall back to
// ingredient and instruction elements recognized by their class names.
package recipesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alchemorsel/ingredients/internal/ports/outbound"
)

// DefaultMaxBytes caps how much of a document is read
const DefaultMaxBytes = 4 << 20

// ErrNoRecipe is returned when a document holds neither a JSON-LD recipe
// nor recognizable ingredient markup
var ErrNoRecipe = errors.New("no recipe found in document")

// HTMLSource is a RecipeSource over one HTML document
type HTMLSource struct {
	r        io.Reader
	maxBytes int64
}

var _ outbound.RecipeSource = (*HTMLSource)(nil)

// NewHTMLSource creates a source reading at most DefaultMaxBytes of r
func NewHTMLSource(r io.Reader) *HTMLSource {
	return &HTMLSource{r: r, maxBytes: DefaultMaxBytes}
}

// WithMaxBytes changes the read limit
func (h *HTMLSource) WithMaxBytes(n int64) *HTMLSource {
	h.maxBytes = n
	return h
}

// Extract parses the document
func (h *HTMLSource) Extract(ctx context.Context) (*outbound.ExtractedRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(h.r, h.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	if recipe := fromJSONLD(doc); recipe != nil {
		return recipe, nil
	}

	recipe := fromMarkup(doc)
	if len(recipe.Ingredients) == 0 {
		return nil, ErrNoRecipe
	}
	return recipe, nil
}

// fromJSONLD returns the first schema.org Recipe in the document's
// ld+json scripts. Scripts that fail to decode are skipped.
func fromJSONLD(doc *goquery.Document) *outbound.ExtractedRecipe {
	var found *outbound.ExtractedRecipe

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if obj := findRecipe(data); obj != nil {
			found = recipeFromObject(obj)
			return false
		}
		return true
	})

	return found
}

// findRecipe walks top-level objects, arrays and @graph containers
func findRecipe(data interface{}) map[string]interface{} {
	switch v := data.(type) {
	case []interface{}:
		for _, item := range v {
			if obj := findRecipe(item); obj != nil {
				return obj
			}
		}
	case map[string]interface{}:
		if isRecipeType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findRecipe(graph)
		}
	}
	return nil
}

func isRecipeType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func recipeFromObject(obj map[string]interface{}) *outbound.ExtractedRecipe {
	recipe := &outbound.ExtractedRecipe{}
	if name, ok := obj["name"].(string); ok {
		recipe.Title = cleanText(name)
	}

	for _, line := range stringList(obj["recipeIngredient"]) {
		recipe.Ingredients = append(recipe.Ingredients, outbound.ExtractedIngredient{Line: line})
	}
	recipe.Instructions = instructionList(obj["recipeInstructions"])
	return recipe
}

// stringList accepts a single string or a list of strings
func stringList(v interface{}) []string {
	var out []string
	switch val := v.(type) {
	case string:
		if s := cleanText(val); s != "" {
			out = append(out, s)
		}
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok {
				if s = cleanText(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// instructionList flattens plain strings, HowToStep objects and
// HowToSection lists of steps
func instructionList(v interface{}) []string {
	var out []string
	switch val := v.(type) {
	case string:
		if s := cleanText(val); s != "" {
			out = append(out, s)
		}
	case []interface{}:
		for _, item := range val {
			out = append(out, instructionList(item)...)
		}
	case map[string]interface{}:
		if items, ok := val["itemListElement"]; ok {
			return instructionList(items)
		}
		if text, ok := val["text"].(string); ok {
			if s := cleanText(text); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// fromMarkup reads li/span elements whose class mentions "ingredient" and
// li/p elements whose class mentions "instruction"
func fromMarkup(doc *goquery.Document) *outbound.ExtractedRecipe {
	recipe := &outbound.ExtractedRecipe{}

	title := doc.Find("h1").First()
	if title.Length() == 0 {
		title = doc.Find("title").First()
	}
	recipe.Title = cleanText(title.Text())

	isIngredient := classContains("ingredient")
	doc.Find("li, span").FilterFunction(isIngredient).Each(func(_ int, s *goquery.Selection) {
		// nested matches belong to their outermost ingredient element
		if s.ParentsFiltered("li, span").FilterFunction(isIngredient).Length() > 0 {
			return
		}
		if found, ok := ingredientFromElement(s); ok {
			recipe.Ingredients = append(recipe.Ingredients, found)
		}
	})

	doc.Find("li, p").FilterFunction(classContains("instruction")).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			recipe.Instructions = append(recipe.Instructions, text)
		}
	})

	return recipe
}

// ingredientFromElement prefers data-ingredient-quantity/unit/name spans
// and falls back to the element text
func ingredientFromElement(s *goquery.Selection) (outbound.ExtractedIngredient, bool) {
	part := func(attr string) string {
		return cleanText(s.Find("span[" + attr + "]").First().Text())
	}

	found := outbound.ExtractedIngredient{
		Quantity: part("data-ingredient-quantity"),
		Unit:     part("data-ingredient-unit"),
		Name:     part("data-ingredient-name"),
	}
	if found.IsSplit() {
		return found, true
	}

	line := cleanText(s.Text())
	return outbound.ExtractedIngredient{Line: line}, line != ""
}

func classContains(word string) func(int, *goquery.Selection) bool {
	return func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return strings.Contains(strings.ToLower(class), word)
	}
}

// cleanText collapses runs of whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
