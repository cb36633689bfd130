package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecheckGenerationVagueConcept(t *testing.T) {
	tests := []string{"", "  ", "ab", " x "}
	for _, concept := range tests {
		perr := PrecheckGeneration(&GenerationRequest{Concept: concept})
		require.NotNil(t, perr, "concept %q should be rejected", concept)
		assert.Equal(t, ErrTypeVagueConcept, perr.Type)
		assert.Equal(t, "Please provide a more detailed recipe concept", perr.Message)
		assert.Equal(t, []string{"Describe specific ingredients", "Mention cuisine preference"}, perr.Suggestions)
	}
}

func TestPrecheckGenerationAcceptsShortButValidConcept(t *testing.T) {
	assert.Nil(t, PrecheckGeneration(&GenerationRequest{Concept: "pho"}))
}

func TestPrecheckGenerationIncludeExcludeConflict(t *testing.T) {
	perr := PrecheckGeneration(&GenerationRequest{
		Concept:             "spicy noodles",
		IncludedIngredients: []string{"Peanuts"},
		ExcludedIngredients: []string{"peanuts"},
	})
	require.NotNil(t, perr)
	assert.Equal(t, ErrTypeConstraintConflict, perr.Type)
}

func TestPrecheckGenerationDietaryConflicts(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		ingredient string
	}{
		{"vegan vs chicken", "vegan", "chicken breast"},
		{"vegetarian vs bacon", "vegetarian", "smoked bacon"},
		{"vegan vs cheese", "vegan", "cheddar cheese"},
		{"dairy-free vs cream", "dairy-free", "heavy cream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := PrecheckGeneration(&GenerationRequest{
				Concept:             "dinner idea",
				DietaryConstraints:  []string{tt.constraint},
				IncludedIngredients: []string{tt.ingredient},
			})
			require.NotNil(t, perr)
			assert.Equal(t, ErrTypeConstraintConflict, perr.Type)
		})
	}
}

func TestPrecheckGenerationVegetarianAllowsDairy(t *testing.T) {
	perr := PrecheckGeneration(&GenerationRequest{
		Concept:             "pasta bake",
		DietaryConstraints:  []string{"vegetarian"},
		IncludedIngredients: []string{"mozzarella cheese"},
	})
	assert.Nil(t, perr)
}
