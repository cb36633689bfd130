package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidateStrictJSON(t *testing.T) {
	content := `{"title":"Garlic Pasta","prepTimeMinutes":10,"cookTimeMinutes":20,"ingredients":[{"name":"pasta","quantity":"200","unit":"g"}],"steps":["Boil the pasta"]}`

	cand, err := ParseCandidate(content)
	require.NoError(t, err)
	assert.False(t, cand.UsedFallback)
	assert.Equal(t, "Garlic Pasta", cand.Recipe.Title)
	assert.Equal(t, 10, cand.Recipe.PrepTimeMinutes.Int())
	require.Len(t, cand.Recipe.Steps, 1)
	assert.Equal(t, "Boil the pasta", cand.Recipe.Steps[0].Text)
	assert.Contains(t, cand.Raw, "title")
}

func TestParseCandidateFallbackExtractsEmbeddedObject(t *testing.T) {
	content := "Here is your recipe:\n```json\n{\"title\":\"Soup\",\"ingredients\":[\"carrot\"],\"steps\":[\"Chop the carrot\"]}\n```\nEnjoy!"

	cand, err := ParseCandidate(content)
	require.NoError(t, err)
	assert.True(t, cand.UsedFallback)
	assert.Equal(t, "Soup", cand.Recipe.Title)
	require.Len(t, cand.Recipe.Ingredients, 1)
	assert.Equal(t, "carrot", cand.Recipe.Ingredients[0].Name)
}

func TestParseCandidateRejectsNonJSON(t *testing.T) {
	_, err := ParseCandidate("Sorry, I cannot help with that.")
	assert.Error(t, err)
}

func TestParseCandidateRejectsEmpty(t *testing.T) {
	_, err := ParseCandidate("   ")
	assert.Error(t, err)
}

func TestParseCandidateNumericStringTimes(t *testing.T) {
	content := `{"title":"Stew","prepTimeMinutes":"15","cookTimeMinutes":null}`

	cand, err := ParseCandidate(content)
	require.NoError(t, err)
	assert.True(t, cand.Recipe.PrepTimeMinutes.Valid)
	assert.Equal(t, 15, cand.Recipe.PrepTimeMinutes.Int())
	assert.False(t, cand.Recipe.CookTimeMinutes.Valid)
}

func TestParseCandidateIngredientAmountAlias(t *testing.T) {
	content := `{"title":"Salad","ingredients":[{"name":"tomato","amount":"2"}]}`

	cand, err := ParseCandidate(content)
	require.NoError(t, err)
	require.Len(t, cand.Recipe.Ingredients, 1)
	assert.Equal(t, "2", cand.Recipe.Ingredients[0].Quantity)
}

func TestParseCandidateStepAliases(t *testing.T) {
	content := `{"title":"Pie","steps":[{"stepNumber":2,"instruction":"Roll the dough","tip":"Keep the butter cold"}]}`

	cand, err := ParseCandidate(content)
	require.NoError(t, err)
	require.Len(t, cand.Recipe.Steps, 1)
	step := cand.Recipe.Steps[0]
	assert.Equal(t, 2, step.Order)
	assert.Equal(t, "Roll the dough", step.Text)
	assert.Equal(t, "Keep the butter cold", step.WhyItMatters)
}

// 产物契约字段必须原样进出：配料带 quantity/group，
// 步骤带 order/text/critical/whyItMatters/checkpoint。
func TestParseCandidateArtifactFieldsRoundTrip(t *testing.T) {
	content := `{
		"title": "Braised Beef",
		"ingredients": [{"name":"beef chuck","quantity":"1","unit":"kg","notes":"cubed","group":"main"}],
		"steps": [{"order":1,"text":"Brown the beef in batches.","timerMinutes":60,"critical":true,"whyItMatters":"Builds the fond","checkpoint":"Deep brown crust"}]
	}`

	cand, err := ParseCandidate(content)
	require.NoError(t, err)

	ing := cand.Recipe.Ingredients[0]
	assert.Equal(t, "1", ing.Quantity)
	assert.Equal(t, "main", ing.Group)

	step := cand.Recipe.Steps[0]
	assert.Equal(t, 1, step.Order)
	assert.Equal(t, "Brown the beef in batches.", step.Text)
	assert.True(t, step.Critical)
	assert.Equal(t, "Builds the fond", step.WhyItMatters)
	assert.Equal(t, "Deep brown crust", step.Checkpoint)

	out, err := json.Marshal(cand.Recipe)
	require.NoError(t, err)
	for _, key := range []string{`"quantity":"1"`, `"group":"main"`, `"order":1`, `"text":"Brown the beef in batches."`, `"critical":true`, `"whyItMatters":"Builds the fond"`, `"checkpoint":"Deep brown crust"`} {
		assert.Contains(t, string(out), key)
	}
}

// 类型不对的字段不是解析失败：保持零值，留给硬校验去报错
func TestParseCandidateToleratesWrongTypedFields(t *testing.T) {
	content := `{"title":123,"servings":4,"steps":[{"order":"2","text":"Simmer gently","critical":"yes"}],"ingredients":[{"name":"leek","quantity":2}]}`

	cand, err := ParseCandidate(content)
	require.NoError(t, err)
	assert.Empty(t, cand.Recipe.Title)
	assert.Equal(t, 4, cand.Recipe.Servings.Int())
	require.Len(t, cand.Recipe.Steps, 1)
	assert.Equal(t, 2, cand.Recipe.Steps[0].Order)
	assert.Equal(t, "Simmer gently", cand.Recipe.Steps[0].Text)
	assert.False(t, cand.Recipe.Steps[0].Critical)
	require.Len(t, cand.Recipe.Ingredients, 1)
	assert.Equal(t, "2", cand.Recipe.Ingredients[0].Quantity)
}
