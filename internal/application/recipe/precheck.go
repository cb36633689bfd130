package recipe

import (
	"fmt"
	"strings"
)

// 饮食约束与食材的冲突词表
var (
	meatTerms  = []string{"chicken", "beef", "pork", "lamb", "bacon", "sausage", "ham", "turkey", "duck", "veal", "fish", "shrimp", "salmon", "tuna", "anchovy"}
	dairyTerms = []string{"milk", "cheese", "butter", "cream", "yogurt", "ghee"}
)

// PrecheckGeneration 在调用模型之前做廉价校验。
// 这里失败不产生运行日志，直接返回分类错误。
func PrecheckGeneration(req *GenerationRequest) *PipelineError {
	if req == nil || len(strings.TrimSpace(req.Concept)) < 3 {
		return &PipelineError{
			Type:    ErrTypeVagueConcept,
			Message: "Please provide a more detailed recipe concept",
			Suggestions: []string{
				"Describe specific ingredients",
				"Mention cuisine preference",
			},
		}
	}

	if conflict := findConstraintConflict(req); conflict != nil {
		return conflict
	}
	return nil
}

func findConstraintConflict(req *GenerationRequest) *PipelineError {
	excluded := make(map[string]bool, len(req.ExcludedIngredients))
	for _, ing := range req.ExcludedIngredients {
		excluded[strings.ToLower(strings.TrimSpace(ing))] = true
	}

	// 同一个食材既要求包含又要求排除
	for _, ing := range req.IncludedIngredients {
		key := strings.ToLower(strings.TrimSpace(ing))
		if key != "" && excluded[key] {
			return &PipelineError{
				Type:    ErrTypeConstraintConflict,
				Message: fmt.Sprintf("Ingredient %q is both included and excluded", ing),
				Suggestions: []string{
					"Remove the ingredient from one of the lists",
				},
			}
		}
	}

	// 饮食约束与必含食材冲突
	for _, constraint := range req.DietaryConstraints {
		c := strings.ToLower(strings.TrimSpace(constraint))
		switch c {
		case "vegan", "vegetarian":
			if ing := firstMatchingIngredient(req.IncludedIngredients, meatTerms); ing != "" {
				return dietaryConflictError(constraint, ing)
			}
			if c == "vegan" {
				if ing := firstMatchingIngredient(req.IncludedIngredients, dairyTerms); ing != "" {
					return dietaryConflictError(constraint, ing)
				}
			}
		case "dairy-free", "dairy_free":
			if ing := firstMatchingIngredient(req.IncludedIngredients, dairyTerms); ing != "" {
				return dietaryConflictError(constraint, ing)
			}
		}
	}
	return nil
}

func firstMatchingIngredient(ingredients, terms []string) string {
	for _, ing := range ingredients {
		lower := strings.ToLower(ing)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return ing
			}
		}
	}
	return ""
}

func dietaryConflictError(constraint, ingredient string) *PipelineError {
	return &PipelineError{
		Type:    ErrTypeConstraintConflict,
		Message: fmt.Sprintf("Ingredient %q conflicts with the %s constraint", ingredient, constraint),
		Suggestions: []string{
			"Remove the conflicting ingredient",
			"Adjust the dietary constraint",
		},
	}
}
