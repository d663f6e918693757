package recipesource

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/ingredients/internal/ports/outbound"
)

func extract(t *testing.T, html string) (*outbound.ExtractedRecipe, error) {
	t.Helper()
	return NewHTMLSource(strings.NewReader(html)).Extract(context.Background())
}

func TestExtract_JSONLD(t *testing.T) {
	tests := []struct {
		name string
		ld   string
	}{
		{
			name: "single object",
			ld: `{"@context":"https://schema.org","@type":"Recipe","name":"Pancakes",
				"recipeIngredient":["2 cups all-purpose flour","1 cup  milk"],
				"recipeInstructions":[{"@type":"HowToStep","text":"Mix."},{"@type":"HowToStep","text":"Fry."}]}`,
		},
		{
			name: "array",
			ld: `[{"@type":"WebPage","name":"Home"},
				{"@type":"Recipe","name":"Pancakes","recipeIngredient":["2 cups all-purpose flour","1 cup milk"],
				"recipeInstructions":["Mix.","Fry."]}]`,
		},
		{
			name: "graph with type list",
			ld: `{"@context":"https://schema.org","@graph":[{"@type":"Organization"},
				{"@type":["Recipe","NewsArticle"],"name":"Pancakes","recipeIngredient":["2 cups all-purpose flour","1 cup milk"],
				"recipeInstructions":[{"@type":"HowToSection","itemListElement":[{"@type":"HowToStep","text":"Mix."},{"@type":"HowToStep","text":"Fry."}]}]}]}`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			html := `<html><head><script type="application/ld+json">` + tc.ld + `</script></head><body><h1>Ignored</h1></body></html>`

			recipe, err := extract(t, html)

			require.NoError(t, err)
			assert.Equal(t, "Pancakes", recipe.Title)
			assert.Equal(t, []outbound.ExtractedIngredient{
				{Line: "2 cups all-purpose flour"},
				{Line: "1 cup milk"},
			}, recipe.Ingredients)
			assert.Equal(t, []string{"Mix.", "Fry."}, recipe.Instructions)
		})
	}
}

func TestExtract_SkipsBrokenJSONLD(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{not json</script>
		<script type="application/ld+json">{"@type":"Recipe","name":"Soup","recipeIngredient":"1 l water","recipeInstructions":"Boil."}</script>
	</head></html>`

	recipe, err := extract(t, html)

	require.NoError(t, err)
	assert.Equal(t, "Soup", recipe.Title)
	assert.Equal(t, []outbound.ExtractedIngredient{{Line: "1 l water"}}, recipe.Ingredients)
	assert.Equal(t, []string{"Boil."}, recipe.Instructions)
}

func TestExtract_MarkupFallback(t *testing.T) {
	html := `<html><head><title>Tab title</title></head><body>
		<h1> Grandma's   Bread </h1>
		<ul>
			<li class="recipe-ingredient">
				<span data-ingredient-quantity="true">1 ½</span>
				<span data-ingredient-unit="true">cups</span>
				<span class="ingredient-name" data-ingredient-name="true">sugar</span>
			</li>
			<li class="Ingredient">3 large eggs</li>
			<li class="ingredient"><span data-ingredient-quantity="true"></span><span data-ingredient-unit="true"> </span></li>
			<li class="tool">whisk</li>
		</ul>
		<ol>
			<li class="instruction-step">Mix everything.</li>
			<p class="InstructionText">Bake.</p>
			<p class="instruction"> </p>
		</ol>
	</body></html>`

	recipe, err := extract(t, html)

	require.NoError(t, err)
	assert.Equal(t, "Grandma's Bread", recipe.Title)
	assert.Equal(t, []outbound.ExtractedIngredient{
		{Quantity: "1 ½", Unit: "cups", Name: "sugar"},
		{Line: "3 large eggs"},
	}, recipe.Ingredients)
	assert.Equal(t, []string{"Mix everything.", "Bake."}, recipe.Instructions)
}

func TestExtract_TitleFallsBackToTitleElement(t *testing.T) {
	recipe, err := extract(t, `<html><head><title>Stew</title></head><body><span class="ingredients">2 lb beef</span></body></html>`)

	require.NoError(t, err)
	assert.Equal(t, "Stew", recipe.Title)
	assert.Equal(t, []outbound.ExtractedIngredient{{Line: "2 lb beef"}}, recipe.Ingredients)
}

func TestExtract_NoRecipe(t *testing.T) {
	_, err := extract(t, `<html><body><p>Nothing to cook here.</p></body></html>`)
	assert.ErrorIs(t, err, ErrNoRecipe)
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTMLSource(strings.NewReader("<html></html>")).Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_RespectsMaxBytes(t *testing.T) {
	html := `<html><body><span class="ingredient">2 lb beef</span></body></html>`

	_, err := NewHTMLSource(strings.NewReader(html)).WithMaxBytes(10).Extract(context.Background())
	assert.ErrorIs(t, err, ErrNoRecipe)
}
