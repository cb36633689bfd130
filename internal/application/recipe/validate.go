package recipe

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	workflowprompt "culinova-ai-api/internal/workflow/prompt"
)

// ValidationContext 校验上下文。请求侧的风格与设备清单是权威来源，
// Relaxed 用于导入场景：跳过 twist 约束与数量窗口。
type ValidationContext struct {
	UserStyle        *UserStyle
	AllowedEquipment []string
	Relaxed          bool
}

// ValidationResult 硬错误阻断产出，软警告只附加
type ValidationResult struct {
	HardErrors []string
	Warnings   []string
}

// Valid 没有硬错误即为通过
func (r ValidationResult) Valid() bool {
	return len(r.HardErrors) == 0
}

// 常备调味与基础食材，不参与主料引用检查
var stapleIngredients = map[string]bool{
	"salt":          true,
	"pepper":        true,
	"water":         true,
	"oil":           true,
	"olive oil":     true,
	"butter":        true,
	"flour":         true,
	"sugar":         true,
	"garlic":        true,
	"onion":         true,
	"garlic powder": true,
	"onion powder":  true,
}

var undefinedTitlePrefix = regexp.MustCompile(`^(?i)undefined\s*[—-]\s*`)

const maxTimeMinutes = 600

// ValidateRecipe 对候选菜谱做硬校验、软校验与归一化。
// 归一化原地修改 r：清理标题、覆写 userStyle、补全 totalTimeMinutes、
// 填充 qualityChecks 与版本号。同样的输入永远得到同样的结论。
func ValidateRecipe(r *Recipe, vctx ValidationContext) ValidationResult {
	var hard []string
	var warnings []string

	if r == nil {
		return ValidationResult{HardErrors: []string{"Missing or invalid title"}}
	}

	// 标题清理：部分模型会拼出 "Undefined — Pasta" 这种前缀
	r.Title = strings.TrimSpace(undefinedTitlePrefix.ReplaceAllString(strings.TrimSpace(r.Title), ""))
	if r.Title == "" {
		hard = append(hard, "Missing or invalid title")
	}

	if len(r.Ingredients) == 0 {
		hard = append(hard, "Missing or empty ingredients array")
	}
	if len(r.Steps) == 0 {
		hard = append(hard, "Missing or empty steps array")
	}

	// 请求侧风格覆写响应侧
	if vctx.UserStyle != nil {
		r.UserStyle = &UserStyle{
			Complexity: vctx.UserStyle.Complexity,
			Novelty:    vctx.UserStyle.Novelty,
		}
	}
	if r.UserStyle == nil || r.UserStyle.Complexity == "" || r.UserStyle.Novelty == "" {
		hard = append(hard, "Missing userStyle fields")
	}

	if !timeValid(r.PrepTimeMinutes) {
		hard = append(hard, "Invalid prepTimeMinutes")
	}
	if !timeValid(r.CookTimeMinutes) {
		hard = append(hard, "Invalid cookTimeMinutes")
	}

	// totalTimeMinutes 缺失或为 0 时按 prep+cook 推导
	if !r.TotalTimeMinutes.Valid || r.TotalTimeMinutes.Value <= 0 {
		if r.PrepTimeMinutes.Valid && r.CookTimeMinutes.Valid {
			r.TotalTimeMinutes = NumberOf(r.PrepTimeMinutes.Value + r.CookTimeMinutes.Value)
		}
	}

	// twist 约束以请求侧 novelty 为准，缺失时退回响应侧
	novelty := ""
	if vctx.UserStyle != nil {
		novelty = vctx.UserStyle.Novelty
	}
	if novelty == "" && r.UserStyle != nil {
		novelty = r.UserStyle.Novelty
	}
	if !vctx.Relaxed {
		hard = append(hard, validateTwists(novelty, r.Twists)...)
	}

	targets := ResolveStructureTargets(r.UserStyle)
	if !vctx.Relaxed {
		if n := len(r.Ingredients); n > 0 && (n < targets.IngredientsMin || n > targets.IngredientsMax) {
			warnings = append(warnings, fmt.Sprintf("Ingredient count %d outside target %d-%d", n, targets.IngredientsMin, targets.IngredientsMax))
		}
		if n := len(r.Steps); n > 0 && (n < targets.StepsMin || n > targets.StepsMax) {
			warnings = append(warnings, fmt.Sprintf("Step count %d outside target %d-%d", n, targets.StepsMin, targets.StepsMax))
		}
	}

	majorOK, missingMajor := majorIngredientsReferenced(r)
	if !majorOK {
		warnings = append(warnings, "Major ingredients not referenced in steps: "+strings.Join(missingMajor, ", "))
	}

	equipmentOK, disallowed := equipmentAllowed(r.Equipment, vctx.AllowedEquipment)
	if !equipmentOK {
		warnings = append(warnings, "Uses disallowed equipment: "+strings.Join(disallowed, ", "))
	}

	r.SchemaVersion = SchemaVersion
	if r.AlignmentNotes == nil {
		r.AlignmentNotes = &AlignmentNotes{}
	}
	r.AlignmentNotes.PromptVersion = workflowprompt.Version

	if r.QualityChecks == nil {
		r.QualityChecks = &QualityChecks{}
	}
	r.QualityChecks.MajorIngredientsReferencedInSteps = majorOK
	r.QualityChecks.EquipmentMatch = equipmentOK
	r.QualityChecks.DietaryCompliance = true
	r.QualityChecks.TimeConstraintCompliance = true
	r.QualityChecks.UnitSanity = true
	r.QualityChecks.Warnings = warnings

	return ValidationResult{HardErrors: hard, Warnings: warnings}
}

func timeValid(n Number) bool {
	if !n.Valid {
		return false
	}
	if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return false
	}
	return n.Value >= 0 && n.Value <= maxTimeMinutes
}

func validateTwists(novelty string, twists []Twist) []string {
	var errs []string
	switch novelty {
	case NoveltyTriedTrue:
		if len(twists) != 0 {
			errs = append(errs, "tried_true recipes must have empty twists array")
		}
	case NoveltyFreshTwist:
		if len(twists) != 1 {
			errs = append(errs, "fresh_twist recipes must have exactly 1 twist")
		} else if !twists[0].IsOptional {
			errs = append(errs, "fresh_twist twist must have isOptional=true")
		}
	default:
		if len(twists) > 3 {
			errs = append(errs, "adventurous recipes can have at most 3 twists")
		}
		for _, t := range twists {
			if !t.IsOptional {
				errs = append(errs, "all adventurous twists must have isOptional=true")
				break
			}
		}
	}
	return errs
}

// pickMajorIngredients 取前三个非常备食材作为主料
func pickMajorIngredients(ingredients []Ingredient) []string {
	var major []string
	for _, ing := range ingredients {
		name := strings.ToLower(strings.TrimSpace(ing.Name))
		if name == "" || stapleIngredients[name] {
			continue
		}
		major = append(major, name)
		if len(major) == 3 {
			break
		}
	}
	return major
}

// majorIngredientsReferenced 检查主料是否在步骤中被提及。
// 少数主料缺失可以容忍（不超过一半），超过则判不通过。
func majorIngredientsReferenced(r *Recipe) (bool, []string) {
	major := pickMajorIngredients(r.Ingredients)
	if len(major) == 0 || len(r.Steps) == 0 {
		return true, nil
	}

	var stepText strings.Builder
	for _, s := range r.Steps {
		stepText.WriteString(strings.ToLower(s.Text))
		stepText.WriteString("\n")
	}
	text := stepText.String()

	var missing []string
	for _, name := range major {
		if ingredientMentioned(text, name) {
			continue
		}
		missing = append(missing, name)
	}

	if len(missing) <= len(major)/2 {
		return true, nil
	}
	return false, missing
}

// ingredientMentioned 全名或有意义的单词命中即算引用，
// 容忍 "boneless chicken thighs" 在步骤里只写 "chicken"。
func ingredientMentioned(stepText, name string) bool {
	if strings.Contains(stepText, name) {
		return true
	}
	for _, word := range strings.Fields(name) {
		if len(word) >= 4 && strings.Contains(stepText, word) {
			return true
		}
	}
	return false
}

func equipmentAllowed(equipment, allowed []string) (bool, []string) {
	if len(allowed) == 0 || len(equipment) == 0 {
		return true, nil
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, e := range allowed {
		allowedSet[strings.ToLower(strings.TrimSpace(e))] = true
	}

	var disallowed []string
	for _, e := range equipment {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" || allowedSet[key] {
			continue
		}
		disallowed = append(disallowed, e)
	}
	if len(disallowed) > 0 {
		return false, disallowed
	}
	return true, nil
}
