// Package recipe 实现菜谱生成、修改、导入的校验修复流水线
package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number 容错数值类型：接受 JSON 数字、数字字符串或 null。
// 模型偶尔会把 prepTimeMinutes 输出成 "30"，这里先收下来，
// 合法性留给硬校验去判断，而不是在解析阶段直接失败。
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		n.Valid = false
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			n.Valid = false
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			n.Valid = false
			return nil
		}
		n.Value = f
		n.Valid = true
		return nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		n.Valid = false
		return nil
	}
	n.Value = f
	n.Valid = true
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	if n.Value == float64(int64(n.Value)) {
		return []byte(strconv.FormatInt(int64(n.Value), 10)), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// Int 取整数值；无效时返回 0
func (n Number) Int() int {
	if !n.Valid {
		return 0
	}
	return int(n.Value)
}

func NumberOf(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UserStyle 用户风格偏好，是校验的权威来源
type UserStyle struct {
	Complexity string `json:"complexity"`
	Novelty    string `json:"novelty"`
}

// Twist 菜谱的创意变化
type Twist struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	IsOptional  bool   `json:"isOptional"`
}

// Ingredient 配料。模型有时输出裸字符串，有时把 quantity 写成 amount，
// 解析时做兼容；输出一律按 quantity 走。
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Notes    string `json:"notes"`
	Group    string `json:"group"`
}

func (i *Ingredient) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		i.Name = strings.TrimSpace(s)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	i.Name = stringField(raw, "name")
	i.Quantity = stringField(raw, "quantity")
	if i.Quantity == "" {
		i.Quantity = stringField(raw, "amount")
	}
	i.Unit = stringField(raw, "unit")
	i.Notes = stringField(raw, "notes")
	i.Group = stringField(raw, "group")
	return nil
}

// Step 步骤。兼容裸字符串与对象两种形态；对象里的
// instruction/stepNumber/tip 是旧模型输出的别名。
type Step struct {
	Order        int    `json:"order"`
	Text         string `json:"text"`
	TimerMinutes Number `json:"timerMinutes"`
	Critical     bool   `json:"critical"`
	WhyItMatters string `json:"whyItMatters"`
	Checkpoint   string `json:"checkpoint"`
}

func (s *Step) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		s.Text = strings.TrimSpace(str)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	var order Number
	if v, ok := raw["order"]; ok {
		_ = order.UnmarshalJSON(v)
	} else if v, ok := raw["stepNumber"]; ok {
		_ = order.UnmarshalJSON(v)
	}
	s.Order = order.Int()

	s.Text = stringField(raw, "text")
	if s.Text == "" {
		s.Text = stringField(raw, "instruction")
	}
	if v, ok := raw["timerMinutes"]; ok {
		_ = s.TimerMinutes.UnmarshalJSON(v)
	}
	if v, ok := raw["critical"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			s.Critical = b
		}
	}
	s.WhyItMatters = stringField(raw, "whyItMatters")
	if s.WhyItMatters == "" {
		s.WhyItMatters = stringField(raw, "tip")
	}
	s.Checkpoint = stringField(raw, "checkpoint")
	return nil
}

// stringField 容错读取字符串字段，数字也转成字符串收下
func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// AlignmentNotes 模型对请求的理解与决策记录
type AlignmentNotes struct {
	Readback           string   `json:"readback"`
	ConstraintsApplied []string `json:"constraintsApplied"`
	PantryUsed         []string `json:"pantryUsed"`
	Assumptions        []string `json:"assumptions"`
	Tradeoffs          []string `json:"tradeoffs"`
	QuickTweaks        []string `json:"quickTweaks"`
	PromptVersion      string   `json:"promptVersion,omitempty"`
}

// QualityChecks 质量检查结果，归一化阶段填充。
// 最后两个标记由服务端写入，不让模型自报。
type QualityChecks struct {
	MajorIngredientsReferencedInSteps bool     `json:"majorIngredientsReferencedInSteps"`
	DietaryCompliance                 bool     `json:"dietaryCompliance"`
	TimeConstraintCompliance          bool     `json:"timeConstraintCompliance"`
	UnitSanity                        bool     `json:"unitSanity"`
	EquipmentMatch                    bool     `json:"equipmentMatch"`
	Warnings                          []string `json:"warnings"`
	UsedJSONExtractionFallback        bool     `json:"usedJsonExtractionFallback,omitempty"`
	UsedRepairPrompt                  bool     `json:"usedRepairPrompt,omitempty"`
}

// Recipe 流水线产出的结构化菜谱
type Recipe struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	PrepTimeMinutes    Number          `json:"prepTimeMinutes"`
	CookTimeMinutes    Number          `json:"cookTimeMinutes"`
	TotalTimeMinutes   Number          `json:"totalTimeMinutes"`
	Servings           Number          `json:"servings"`
	CaloriesPerServing Number          `json:"caloriesPerServing,omitempty"`
	Difficulty         string          `json:"difficulty"`
	CuisineType        string          `json:"cuisineType,omitempty"`
	Ingredients        []Ingredient    `json:"ingredients"`
	Steps              []Step          `json:"steps"`
	Equipment          []string        `json:"equipment,omitempty"`
	Tags               []string        `json:"tags"`
	Twists             []Twist         `json:"twists"`
	UserStyle          *UserStyle      `json:"userStyle"`
	AlignmentNotes     *AlignmentNotes `json:"alignmentNotes"`
	QualityChecks      *QualityChecks  `json:"qualityChecks"`
	SchemaVersion      int             `json:"schemaVersion"`
}

// 风格枚举值
const (
	ComplexitySimple   = "simple"
	ComplexityBalanced = "balanced"
	ComplexityProject  = "project"

	NoveltyTriedTrue   = "tried_true"
	NoveltyFreshTwist  = "fresh_twist"
	NoveltyAdventurous = "adventurous"
)

// SchemaVersion 当前输出结构版本
const SchemaVersion = 1

// GenerationRequest 生成请求
type GenerationRequest struct {
	Concept             string
	DietaryConstraints  []string
	TimeConstraints     string
	SkillLevel          string
	CostPreference      string
	ExcludedIngredients []string
	IncludedIngredients []string
	CuisineType         string
	MealType            string
	SpicinessLevel      string
	TargetServings      int
	PantryMode          string
	PantryItems         []PantryItem
	UserStyle           *UserStyle
	AllowedEquipment    []string
	Provider            string
	Model               string
}

// PantryItem 食材库条目
type PantryItem struct {
	Name      string
	Quantity  string
	Selection string // required / optional
}

// ModificationRequest 修改请求
type ModificationRequest struct {
	BaseRecipe               *Recipe
	ModificationInstructions string
	UserStyle                *UserStyle
	AllowedEquipment         []string
	Provider                 string
	Model                    string
}

// 导入源类型
const (
	ImportTypeURL  = "url"
	ImportTypeText = "text"
)

// ImportRequest 导入请求
type ImportRequest struct {
	Type     string
	Content  string
	Provider string
	Model    string
}

// Result 流水线的成功产物
type Result struct {
	Recipe       *Recipe
	Warnings     []string
	HardErrors   []string
	UsedFallback bool
	UsedRepair   bool
}

// 错误分类
const (
	ErrTypeVagueConcept       = "vague_concept"
	ErrTypeConstraintConflict = "constraint_conflict"
	ErrTypeValidationFailed   = "validation_failed"
	ErrTypeServiceError       = "service_error"
)

// PipelineError 带分类与建议的终态错误
type PipelineError struct {
	Type        string
	Message     string
	Suggestions []string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func newServiceError() *PipelineError {
	return &PipelineError{
		Type:    ErrTypeServiceError,
		Message: "Failed to generate recipe. Please try again.",
		Suggestions: []string{
			"Check your internet connection",
			"Try a different recipe concept",
		},
	}
}
