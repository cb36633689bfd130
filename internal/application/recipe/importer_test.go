package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONLDRecipeTopLevel(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">
	{"@context":"https://schema.org","@type":"Recipe","name":"Pancakes","recipeIngredient":["flour","milk"]}
	</script>
	</head><body>Other content</body></html>`

	got := ExtractJSONLDRecipe(html)
	require.NotEmpty(t, got)

	var node map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &node))
	assert.Equal(t, "Pancakes", node["name"])
}

func TestExtractJSONLDRecipeFromGraph(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@context":"https://schema.org","@graph":[
		{"@type":"WebPage","name":"A page"},
		{"@type":"Recipe","name":"Ramen","recipeYield":"2"}
	]}
	</script>`

	got := ExtractJSONLDRecipe(html)
	require.NotEmpty(t, got)

	var node map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &node))
	assert.Equal(t, "Ramen", node["name"])
}

func TestExtractJSONLDRecipeTypeArray(t *testing.T) {
	html := `<script type="application/ld+json">
	[{"@type":["Thing","Recipe"],"name":"Tacos"}]
	</script>`

	got := ExtractJSONLDRecipe(html)
	require.NotEmpty(t, got)
	assert.Contains(t, got, "Tacos")
}

func TestExtractJSONLDRecipeNoRecipeNode(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"Article","headline":"News"}</script>`
	assert.Empty(t, ExtractJSONLDRecipe(html))
}

func TestExtractJSONLDRecipeMalformedJSONIsSkipped(t *testing.T) {
	html := `<script type="application/ld+json">{not json}</script>
	<script type="application/ld+json">{"@type":"Recipe","name":"Backup"}</script>`

	got := ExtractJSONLDRecipe(html)
	assert.Contains(t, got, "Backup")
}

func TestStripHTMLTags(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style><script>var a=1;</script></head>
	<body><h1>Best Soup</h1><p>Chop &amp; simmer the onions.</p></body></html>`

	text := stripHTMLTags(html)
	assert.Contains(t, text, "Best Soup")
	assert.Contains(t, text, "Chop & simmer the onions.")
	assert.NotContains(t, text, "var a=1")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "<p>")
}

func TestBuildPageCacheKeyStable(t *testing.T) {
	a := buildPageCacheKey("https://example.com/a")
	b := buildPageCacheKey("https://example.com/b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, buildPageCacheKey("https://example.com/a"))
	assert.Contains(t, a, "import:page:")
}
