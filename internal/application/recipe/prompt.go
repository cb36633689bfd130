package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// outputContract 输出契约的文字描述。作为模板变量注入，
// 模板文件里不出现字面量大括号，避开 FString 的占位符语法。
const outputContract = `{
  "title": "string",
  "description": "string",
  "prepTimeMinutes": number,
  "cookTimeMinutes": number,
  "totalTimeMinutes": number,
  "servings": number,
  "difficulty": "easy" | "medium" | "hard",
  "ingredients": [ { "name": "string", "quantity": "string", "unit": "string", "notes": "string", "group": "string" } ],
  "steps": [ { "order": number, "text": "string", "timerMinutes": number, "critical": boolean, "whyItMatters": "string", "checkpoint": "string" } ],
  "equipment": [ "string" ],
  "tags": [ "string" ],
  "caloriesPerServing": number,
  "twists": [ { "title": "string", "description": "string", "isOptional": boolean } ],
  "userStyle": { "complexity": "string", "novelty": "string" },
  "alignmentNotes": {
    "readback": "string",
    "constraintsApplied": [ "string" ],
    "pantryUsed": [ "string" ],
    "assumptions": [ "string" ],
    "tradeoffs": [ "string" ],
    "quickTweaks": [ "string" ]
  },
  "qualityChecks": {
    "majorIngredientsReferencedInSteps": boolean,
    "dietaryCompliance": boolean,
    "timeConstraintCompliance": boolean,
    "unitSanity": boolean,
    "equipmentMatch": boolean,
    "warnings": [ "string" ]
  }
}`

func buildGenerationVars(req *GenerationRequest, targets StructureTargets) map[string]any {
	return map[string]any{
		"concept":           strings.TrimSpace(req.Concept),
		"constraints_block": buildConstraintsBlock(req),
		"pantry_block":      buildPantryBlock(req.PantryMode, req.PantryItems),
		"targets_block":     buildTargetsBlock(targets),
		"twist_rule":        targets.TwistRuleDetail,
		"output_contract":   outputContract,
	}
}

func buildModificationVars(req *ModificationRequest, targets StructureTargets) (map[string]any, error) {
	baseJSON, err := json.MarshalIndent(req.BaseRecipe, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal base recipe: %w", err)
	}
	return map[string]any{
		"base_recipe_block":         string(baseJSON),
		"modification_instructions": strings.TrimSpace(req.ModificationInstructions),
		"constraints_block":         buildEquipmentBlock(req.AllowedEquipment),
		"targets_block":             buildTargetsBlock(targets),
		"twist_rule":                targets.TwistRuleDetail,
		"output_contract":           outputContract,
	}, nil
}

func buildRepairVars(candidate *Recipe, hardErrors []string, targets StructureTargets) (map[string]any, error) {
	candidateJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal candidate: %w", err)
	}
	lines := make([]string, 0, len(hardErrors))
	for _, e := range hardErrors {
		lines = append(lines, "- "+e)
	}
	return map[string]any{
		"candidate_json":    string(candidateJSON),
		"hard_errors_block": strings.Join(lines, "\n"),
		"twist_rule":        targets.TwistRuleDetail,
		"output_contract":   outputContract,
	}, nil
}

func buildImportVars(content string) map[string]any {
	return map[string]any{
		"source_block":    content,
		"output_contract": outputContract,
	}
}

func buildConstraintsBlock(req *GenerationRequest) string {
	var lines []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", label, v))
		}
	}

	add("Dietary constraints", strings.Join(req.DietaryConstraints, ", "))
	add("Time constraints", req.TimeConstraints)
	add("Skill level", req.SkillLevel)
	add("Cost preference", req.CostPreference)
	add("Must exclude", strings.Join(req.ExcludedIngredients, ", "))
	add("Must include", strings.Join(req.IncludedIngredients, ", "))
	add("Cuisine type", req.CuisineType)
	add("Meal type", req.MealType)
	add("Spiciness level", req.SpicinessLevel)
	if req.TargetServings > 0 {
		add("Target servings", fmt.Sprintf("%d", req.TargetServings))
	}
	if len(req.AllowedEquipment) > 0 {
		add("Available equipment (use only these)", strings.Join(req.AllowedEquipment, ", "))
	}

	if len(lines) == 0 {
		return "CONSTRAINTS: none specified."
	}
	return "CONSTRAINTS:\n" + strings.Join(lines, "\n")
}

func buildEquipmentBlock(allowed []string) string {
	if len(allowed) == 0 {
		return "CONSTRAINTS: none specified."
	}
	return "CONSTRAINTS:\n- Available equipment (use only these): " + strings.Join(allowed, ", ")
}

// buildPantryBlock 渲染食材库段落。必选项必须出现在菜谱里，
// 可选项由模型按需取用。
func buildPantryBlock(mode string, items []PantryItem) string {
	if len(items) == 0 {
		return ""
	}

	var required, optional []PantryItem
	for _, item := range items {
		if strings.EqualFold(item.Selection, "required") {
			required = append(required, item)
		} else {
			optional = append(optional, item)
		}
	}

	var b strings.Builder
	b.WriteString("CUSTOM PANTRY SELECTION:\n")

	if len(required) > 0 {
		b.WriteString("\nREQUIRED (must appear in the recipe):\n")
		for _, item := range required {
			b.WriteString(renderPantryItem(item))
		}
	}
	if len(optional) > 0 {
		b.WriteString("\nOPTIONAL (use if they fit):\n")
		for _, item := range optional {
			b.WriteString(renderPantryItem(item))
		}
	}

	switch {
	case len(required) > 0 && len(optional) > 0:
		b.WriteString("\nEvery REQUIRED item must be used in the recipe. OPTIONAL items may be used when they improve the dish. You may add common ingredients not listed above.")
	case len(required) > 0:
		b.WriteString("\nEvery REQUIRED item must be used in the recipe. You may add common ingredients not listed above.")
	default:
		b.WriteString("\nOPTIONAL items may be used when they improve the dish. You may add common ingredients not listed above.")
	}

	return b.String()
}

func renderPantryItem(item PantryItem) string {
	name := strings.TrimSpace(item.Name)
	qty := strings.TrimSpace(item.Quantity)
	if qty == "" {
		return "- " + name + "\n"
	}
	return fmt.Sprintf("- %s (%s)\n", name, qty)
}

func buildTargetsBlock(t StructureTargets) string {
	return fmt.Sprintf(
		"- Ingredients: %d to %d\n- Steps: %d to %d\n- Technique level: %s",
		t.IngredientsMin, t.IngredientsMax, t.StepsMin, t.StepsMax, t.TechniqueLevel,
	)
}
