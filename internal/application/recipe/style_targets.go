package recipe

// StructureTargets 由用户风格决定的结构目标，
// 同样的风格输入永远得到同样的目标。
type StructureTargets struct {
	IngredientsMin  int
	IngredientsMax  int
	StepsMin        int
	StepsMax        int
	TechniqueLevel  string
	TwistRule       string
	TwistRuleDetail string
}

// 技法层级
const (
	TechniqueBasicOnly       = "basic_only"
	TechniqueBasicPlusOne    = "basic_plus_one"
	TechniqueAdvancedAllowed = "advanced_allowed"
)

// twist 规则标识
const (
	TwistRuleNoFusionNoWeird  = "no_fusion_no_weird"
	TwistRuleOneOptionalTwist = "one_optional_twist"
	TwistRuleAdventurousOK    = "adventurous_ok"
)

// ResolveStructureTargets 把风格偏好映射为结构目标。
// 未知的 complexity 按 project 处理，未知的 novelty 按 adventurous 处理。
func ResolveStructureTargets(style *UserStyle) StructureTargets {
	complexity := ""
	novelty := ""
	if style != nil {
		complexity = style.Complexity
		novelty = style.Novelty
	}

	var t StructureTargets
	switch complexity {
	case ComplexitySimple:
		t = StructureTargets{
			IngredientsMin: 6, IngredientsMax: 10,
			StepsMin: 5, StepsMax: 8,
			TechniqueLevel: TechniqueBasicOnly,
		}
	case ComplexityBalanced:
		t = StructureTargets{
			IngredientsMin: 9, IngredientsMax: 14,
			StepsMin: 7, StepsMax: 11,
			TechniqueLevel: TechniqueBasicPlusOne,
		}
	default:
		t = StructureTargets{
			IngredientsMin: 12, IngredientsMax: 18,
			StepsMin: 10, StepsMax: 16,
			TechniqueLevel: TechniqueAdvancedAllowed,
		}
	}

	switch novelty {
	case NoveltyTriedTrue:
		t.TwistRule = TwistRuleNoFusionNoWeird
		t.TwistRuleDetail = "The twists array MUST be empty. No fusion elements, no unusual ingredient pairings. Stick to the classic preparation."
	case NoveltyFreshTwist:
		t.TwistRule = TwistRuleOneOptionalTwist
		t.TwistRuleDetail = "Include exactly 1 twist in the twists array, and it MUST have isOptional=true. The base recipe must stand on its own without it."
	default:
		t.TwistRule = TwistRuleAdventurousOK
		t.TwistRuleDetail = "Up to 3 twists are allowed in the twists array, and every twist MUST have isOptional=true."
	}

	return t
}
