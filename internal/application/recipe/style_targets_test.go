package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStructureTargets(t *testing.T) {
	tests := []struct {
		name       string
		style      *UserStyle
		wantIngMin int
		wantIngMax int
		wantStep   [2]int
		wantLevel  string
		wantTwist  string
	}{
		{
			name:       "simple tried_true",
			style:      &UserStyle{Complexity: ComplexitySimple, Novelty: NoveltyTriedTrue},
			wantIngMin: 6, wantIngMax: 10,
			wantStep:  [2]int{5, 8},
			wantLevel: TechniqueBasicOnly,
			wantTwist: TwistRuleNoFusionNoWeird,
		},
		{
			name:       "balanced fresh_twist",
			style:      &UserStyle{Complexity: ComplexityBalanced, Novelty: NoveltyFreshTwist},
			wantIngMin: 9, wantIngMax: 14,
			wantStep:  [2]int{7, 11},
			wantLevel: TechniqueBasicPlusOne,
			wantTwist: TwistRuleOneOptionalTwist,
		},
		{
			name:       "project adventurous",
			style:      &UserStyle{Complexity: ComplexityProject, Novelty: NoveltyAdventurous},
			wantIngMin: 12, wantIngMax: 18,
			wantStep:  [2]int{10, 16},
			wantLevel: TechniqueAdvancedAllowed,
			wantTwist: TwistRuleAdventurousOK,
		},
		{
			name:       "unknown values fall back to project adventurous",
			style:      &UserStyle{Complexity: "extreme", Novelty: "wild"},
			wantIngMin: 12, wantIngMax: 18,
			wantStep:  [2]int{10, 16},
			wantLevel: TechniqueAdvancedAllowed,
			wantTwist: TwistRuleAdventurousOK,
		},
		{
			name:       "nil style falls back to project adventurous",
			style:      nil,
			wantIngMin: 12, wantIngMax: 18,
			wantStep:  [2]int{10, 16},
			wantLevel: TechniqueAdvancedAllowed,
			wantTwist: TwistRuleAdventurousOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStructureTargets(tt.style)
			assert.Equal(t, tt.wantIngMin, got.IngredientsMin)
			assert.Equal(t, tt.wantIngMax, got.IngredientsMax)
			assert.Equal(t, tt.wantStep[0], got.StepsMin)
			assert.Equal(t, tt.wantStep[1], got.StepsMax)
			assert.Equal(t, tt.wantLevel, got.TechniqueLevel)
			assert.Equal(t, tt.wantTwist, got.TwistRule)
			assert.NotEmpty(t, got.TwistRuleDetail)
		})
	}
}

func TestResolveStructureTargetsDeterministic(t *testing.T) {
	style := &UserStyle{Complexity: ComplexityBalanced, Novelty: NoveltyFreshTwist}
	first := ResolveStructureTargets(style)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ResolveStructureTargets(style))
	}
}
