package recipe

// 顶层必填字段，按输出契约的顺序排列
var requiredTopLevelFields = []string{
	"title",
	"description",
	"prepTimeMinutes",
	"cookTimeMinutes",
	"servings",
	"difficulty",
	"ingredients",
	"steps",
	"tags",
	"twists",
	"userStyle",
	"alignmentNotes",
	"qualityChecks",
}

var requiredAlignmentFields = []string{
	"readback",
	"constraintsApplied",
	"pantryUsed",
	"assumptions",
	"tradeoffs",
	"quickTweaks",
}

var requiredQualityFields = []string{
	"majorIngredientsReferencedInSteps",
	"dietaryCompliance",
	"timeConstraintCompliance",
	"unitSanity",
	"equipmentMatch",
	"warnings",
}

// ValidateSchema 检查候选对象的字段齐全性，返回缺失字段列表。
// 只看字段是否存在，取值合法性由硬校验负责。
func ValidateSchema(raw map[string]any) []string {
	if raw == nil {
		return []string{"title"}
	}

	var missing []string
	for _, f := range requiredTopLevelFields {
		if _, ok := raw[f]; !ok {
			missing = append(missing, f)
		}
	}

	if style, ok := raw["userStyle"].(map[string]any); ok {
		_, hasComplexity := style["complexity"]
		_, hasNovelty := style["novelty"]
		if !hasComplexity || !hasNovelty {
			missing = append(missing, "userStyle.complexity or userStyle.novelty")
		}
	}

	if notes, ok := raw["alignmentNotes"].(map[string]any); ok {
		for _, f := range requiredAlignmentFields {
			if _, present := notes[f]; !present {
				missing = append(missing, "alignmentNotes."+f)
			}
		}
	}

	if checks, ok := raw["qualityChecks"].(map[string]any); ok {
		for _, f := range requiredQualityFields {
			if _, present := checks[f]; !present {
				missing = append(missing, "qualityChecks."+f)
			}
		}
	}

	return missing
}
