package recipe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecipe() *Recipe {
	return &Recipe{
		Title:           "Lemon Chicken",
		Description:     "Bright and simple",
		PrepTimeMinutes: NumberOf(15),
		CookTimeMinutes: NumberOf(30),
		Servings:        NumberOf(4),
		Difficulty:      "easy",
		Ingredients: []Ingredient{
			{Name: "chicken thighs", Quantity: "500", Unit: "g"},
			{Name: "lemon", Quantity: "1"},
			{Name: "rosemary", Quantity: "2", Unit: "sprigs"},
			{Name: "salt"},
			{Name: "pepper"},
			{Name: "olive oil", Quantity: "2", Unit: "tbsp"},
		},
		Steps: []Step{
			{Text: "Season the chicken thighs with salt and pepper."},
			{Text: "Sear the chicken in olive oil until golden."},
			{Text: "Add lemon juice and rosemary."},
			{Text: "Cover and cook through."},
			{Text: "Rest and serve."},
		},
		Tags:      []string{"dinner"},
		Twists:    nil,
		UserStyle: &UserStyle{Complexity: ComplexitySimple, Novelty: NoveltyTriedTrue},
	}
}

func simpleCtx() ValidationContext {
	return ValidationContext{
		UserStyle: &UserStyle{Complexity: ComplexitySimple, Novelty: NoveltyTriedTrue},
	}
}

func TestValidateRecipeHappyPath(t *testing.T) {
	r := validRecipe()
	res := ValidateRecipe(r, simpleCtx())

	assert.True(t, res.Valid())
	assert.Empty(t, res.Warnings)
	require.NotNil(t, r.QualityChecks)
	assert.True(t, r.QualityChecks.MajorIngredientsReferencedInSteps)
	assert.True(t, r.QualityChecks.EquipmentMatch)
	assert.Equal(t, SchemaVersion, r.SchemaVersion)
	require.NotNil(t, r.AlignmentNotes)
	assert.NotEmpty(t, r.AlignmentNotes.PromptVersion)
}

func TestValidateRecipeMissingCoreFields(t *testing.T) {
	res := ValidateRecipe(&Recipe{}, ValidationContext{})

	assert.Contains(t, res.HardErrors, "Missing or invalid title")
	assert.Contains(t, res.HardErrors, "Missing or empty ingredients array")
	assert.Contains(t, res.HardErrors, "Missing or empty steps array")
	assert.Contains(t, res.HardErrors, "Missing userStyle fields")
}

func TestValidateRecipeStripsUndefinedTitlePrefix(t *testing.T) {
	r := validRecipe()
	r.Title = "Undefined — Lemon Chicken"
	res := ValidateRecipe(r, simpleCtx())

	assert.True(t, res.Valid())
	assert.Equal(t, "Lemon Chicken", r.Title)
}

func TestValidateRecipeUndefinedOnlyTitleIsInvalid(t *testing.T) {
	r := validRecipe()
	r.Title = "undefined - "
	res := ValidateRecipe(r, simpleCtx())

	assert.Contains(t, res.HardErrors, "Missing or invalid title")
}

func TestValidateRecipeTimeBounds(t *testing.T) {
	tests := []struct {
		name string
		prep Number
		cook Number
		want []string
	}{
		{"negative prep", NumberOf(-5), NumberOf(10), []string{"Invalid prepTimeMinutes"}},
		{"cook over cap", NumberOf(10), NumberOf(601), []string{"Invalid cookTimeMinutes"}},
		{"both missing", Number{}, Number{}, []string{"Invalid prepTimeMinutes", "Invalid cookTimeMinutes"}},
		{"zero is valid", NumberOf(0), NumberOf(0), nil},
		{"cap is valid", NumberOf(600), NumberOf(600), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecipe()
			r.PrepTimeMinutes = tt.prep
			r.CookTimeMinutes = tt.cook
			res := ValidateRecipe(r, simpleCtx())
			for _, want := range tt.want {
				assert.Contains(t, res.HardErrors, want)
			}
			if tt.want == nil {
				assert.True(t, res.Valid())
			}
		})
	}
}

func TestValidateRecipeComputesTotalTime(t *testing.T) {
	r := validRecipe()
	r.TotalTimeMinutes = Number{}
	ValidateRecipe(r, simpleCtx())
	assert.Equal(t, 45, r.TotalTimeMinutes.Int())

	r = validRecipe()
	r.TotalTimeMinutes = NumberOf(50)
	ValidateRecipe(r, simpleCtx())
	assert.Equal(t, 50, r.TotalTimeMinutes.Int())
}

func TestValidateRecipeUserStyleAuthority(t *testing.T) {
	r := validRecipe()
	r.UserStyle = &UserStyle{Complexity: ComplexityProject, Novelty: NoveltyAdventurous}
	r.Twists = []Twist{{Description: "add chili", IsOptional: true}}

	// 请求侧是 tried_true：响应侧自称 adventurous 也不算数
	res := ValidateRecipe(r, simpleCtx())

	assert.Contains(t, res.HardErrors, "tried_true recipes must have empty twists array")
	assert.Equal(t, NoveltyTriedTrue, r.UserStyle.Novelty)
	assert.Equal(t, ComplexitySimple, r.UserStyle.Complexity)
}

func TestValidateRecipeTwistRules(t *testing.T) {
	optional := Twist{Description: "optional twist", IsOptional: true}
	mandatory := Twist{Description: "mandatory twist", IsOptional: false}

	tests := []struct {
		name    string
		novelty string
		twists  []Twist
		want    string
	}{
		{"tried_true with twists", NoveltyTriedTrue, []Twist{optional}, "tried_true recipes must have empty twists array"},
		{"fresh_twist with none", NoveltyFreshTwist, nil, "fresh_twist recipes must have exactly 1 twist"},
		{"fresh_twist with two", NoveltyFreshTwist, []Twist{optional, optional}, "fresh_twist recipes must have exactly 1 twist"},
		{"fresh_twist mandatory", NoveltyFreshTwist, []Twist{mandatory}, "fresh_twist twist must have isOptional=true"},
		{"adventurous with four", NoveltyAdventurous, []Twist{optional, optional, optional, optional}, "adventurous recipes can have at most 3 twists"},
		{"adventurous mandatory", NoveltyAdventurous, []Twist{optional, mandatory}, "all adventurous twists must have isOptional=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecipe()
			r.Twists = tt.twists
			vctx := ValidationContext{UserStyle: &UserStyle{Complexity: ComplexitySimple, Novelty: tt.novelty}}
			res := ValidateRecipe(r, vctx)
			assert.Contains(t, res.HardErrors, tt.want)
		})
	}
}

func TestValidateRecipeTwistRulesSatisfied(t *testing.T) {
	optional := Twist{Description: "optional twist", IsOptional: true}

	tests := []struct {
		name    string
		novelty string
		twists  []Twist
	}{
		{"tried_true empty", NoveltyTriedTrue, nil},
		{"fresh_twist one optional", NoveltyFreshTwist, []Twist{optional}},
		{"adventurous three optional", NoveltyAdventurous, []Twist{optional, optional, optional}},
		{"adventurous empty", NoveltyAdventurous, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecipe()
			r.Twists = tt.twists
			vctx := ValidationContext{UserStyle: &UserStyle{Complexity: ComplexitySimple, Novelty: tt.novelty}}
			res := ValidateRecipe(r, vctx)
			assert.True(t, res.Valid(), "hard errors: %v", res.HardErrors)
		})
	}
}

func TestValidateRecipeRelaxedSkipsTwistAndCounts(t *testing.T) {
	r := validRecipe()
	r.Twists = []Twist{{Description: "twist", IsOptional: false}}
	r.Ingredients = r.Ingredients[:2]
	r.Steps = r.Steps[:2]
	r.UserStyle = &UserStyle{Complexity: ComplexitySimple, Novelty: NoveltyTriedTrue}

	res := ValidateRecipe(r, ValidationContext{Relaxed: true})

	assert.True(t, res.Valid(), "hard errors: %v", res.HardErrors)
	for _, w := range res.Warnings {
		assert.NotContains(t, w, "outside target")
	}
}

func TestValidateRecipeCountWindows(t *testing.T) {
	r := validRecipe()
	r.Ingredients = r.Ingredients[:3]
	res := ValidateRecipe(r, simpleCtx())

	assert.True(t, res.Valid())
	assert.Contains(t, res.Warnings, fmt.Sprintf("Ingredient count %d outside target %d-%d", 3, 6, 10))

	r = validRecipe()
	r.Steps = append(r.Steps,
		Step{Text: "Plate the chicken."},
		Step{Text: "Garnish with lemon."},
		Step{Text: "Add a side salad."},
		Step{Text: "Serve with bread."},
	)
	res = ValidateRecipe(r, simpleCtx())
	assert.Contains(t, res.Warnings, fmt.Sprintf("Step count %d outside target %d-%d", 9, 5, 8))
}

func TestValidateRecipeMajorIngredientWarning(t *testing.T) {
	r := validRecipe()
	// 三个主料全部不在步骤中出现
	r.Ingredients = []Ingredient{
		{Name: "duck breast"},
		{Name: "star anise"},
		{Name: "plum sauce"},
		{Name: "salt"},
		{Name: "pepper"},
		{Name: "water"},
	}
	r.Steps = []Step{
		{Text: "Preheat the oven."},
		{Text: "Season everything."},
		{Text: "Roast until done."},
		{Text: "Rest the meat."},
		{Text: "Serve warm."},
	}

	res := ValidateRecipe(r, simpleCtx())

	assert.True(t, res.Valid())
	require.NotNil(t, r.QualityChecks)
	assert.False(t, r.QualityChecks.MajorIngredientsReferencedInSteps)
	found := false
	for _, w := range res.Warnings {
		if len(w) > 0 && w[:5] == "Major" {
			found = true
		}
	}
	assert.True(t, found, "expected major ingredient warning, got %v", res.Warnings)
}

func TestValidateRecipeMajorIngredientToleratesMinority(t *testing.T) {
	r := validRecipe()
	// 三个主料里只缺一个（<= 一半），不应告警
	r.Ingredients = []Ingredient{
		{Name: "chicken thighs"},
		{Name: "lemon"},
		{Name: "saffron"},
	}
	res := ValidateRecipe(r, simpleCtx())

	assert.True(t, r.QualityChecks.MajorIngredientsReferencedInSteps)
	for _, w := range res.Warnings {
		assert.NotContains(t, w, "Major ingredients")
	}
}

func TestValidateRecipeEquipmentAllowList(t *testing.T) {
	r := validRecipe()
	r.Equipment = []string{"oven", "stand mixer"}
	vctx := simpleCtx()
	vctx.AllowedEquipment = []string{"oven", "stovetop"}

	res := ValidateRecipe(r, vctx)

	assert.True(t, res.Valid())
	assert.Contains(t, res.Warnings, "Uses disallowed equipment: stand mixer")
	assert.False(t, r.QualityChecks.EquipmentMatch)
}

func TestValidateRecipeEquipmentNoAllowList(t *testing.T) {
	r := validRecipe()
	r.Equipment = []string{"blowtorch"}

	res := ValidateRecipe(r, simpleCtx())

	assert.True(t, res.Valid())
	assert.True(t, r.QualityChecks.EquipmentMatch)
}

func TestValidateRecipeDeterministic(t *testing.T) {
	build := func() *Recipe {
		r := validRecipe()
		r.Twists = []Twist{{Description: "twist", IsOptional: false}}
		return r
	}
	first := ValidateRecipe(build(), simpleCtx())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ValidateRecipe(build(), simpleCtx()))
	}
}
