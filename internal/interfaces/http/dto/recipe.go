package dto

import (
	"encoding/json"
	"strings"

	"culinova-ai-api/internal/application/recipe"
)

// UserStyleDTO 用户风格
type UserStyleDTO struct {
	Complexity string `json:"complexity"`
	Novelty    string `json:"novelty"`
}

// PantryItemDTO 食材库条目
type PantryItemDTO struct {
	Name      string `json:"name" binding:"required"`
	Quantity  string `json:"quantity"`
	Selection string `json:"selection"`
}

// GenerateRecipeRequest 生成请求
type GenerateRecipeRequest struct {
	Concept             string          `json:"concept" binding:"required"`
	DietaryConstraints  []string        `json:"dietaryConstraints"`
	TimeConstraints     string          `json:"timeConstraints"`
	SkillLevel          string          `json:"skillLevel"`
	CostPreference      string          `json:"costPreference"`
	ExcludedIngredients []string        `json:"excludedIngredients"`
	IncludedIngredients []string        `json:"includedIngredients"`
	CuisineType         string          `json:"cuisineType"`
	MealType            string          `json:"mealType"`
	SpicinessLevel      string          `json:"spicinessLevel"`
	TargetServings      int             `json:"targetServings"`
	PantryMode          string          `json:"pantryMode"`
	PantryItems         []PantryItemDTO `json:"pantryItems"`
	// selectedPantryItems 是老客户端的形态：食材名 -> required/optional
	SelectedPantryItems map[string]string `json:"selectedPantryItems"`
	UserStyle           *UserStyleDTO     `json:"userStyle"`
	AllowedEquipment    []string          `json:"allowedEquipment"`
	Provider            string            `json:"provider"`
	Model               string            `json:"model"`
}

// ModifyRecipeRequest 修改请求
type ModifyRecipeRequest struct {
	BaseRecipe               json.RawMessage `json:"baseRecipe" binding:"required"`
	ModificationInstructions string          `json:"modificationInstructions" binding:"required"`
	UserStyle                *UserStyleDTO   `json:"userStyle"`
	AllowedEquipment         []string        `json:"allowedEquipment"`
	Provider                 string          `json:"provider"`
	Model                    string          `json:"model"`
}

// ImportSourceDTO 导入来源
type ImportSourceDTO struct {
	Type    string `json:"type" binding:"required,oneof=url text"`
	Content string `json:"content" binding:"required"`
}

// ImportRecipeRequest 导入请求
type ImportRecipeRequest struct {
	ImportRequest ImportSourceDTO `json:"importRequest" binding:"required"`
	Provider      string          `json:"provider"`
	Model         string          `json:"model"`
}

// DispatchRecipeRequest 兼容端点：一个请求体承载三种操作，
// operation 缺省时按字段推断
type DispatchRecipeRequest struct {
	Operation string `json:"operation"`

	GenerateRecipeRequest
	BaseRecipe               json.RawMessage  `json:"baseRecipe"`
	ModificationInstructions string           `json:"modificationInstructions"`
	ImportRequest            *ImportSourceDTO `json:"importRequest"`
}

// ResolveOperation 确定请求对应的操作
func (r *DispatchRecipeRequest) ResolveOperation() string {
	if op := strings.TrimSpace(r.Operation); op != "" {
		return op
	}
	if r.ImportRequest != nil {
		return "import"
	}
	if len(r.BaseRecipe) > 0 && strings.TrimSpace(r.ModificationInstructions) != "" {
		return "modify"
	}
	return "generate"
}

func (s *UserStyleDTO) toDomain() *recipe.UserStyle {
	if s == nil {
		return nil
	}
	return &recipe.UserStyle{
		Complexity: strings.TrimSpace(s.Complexity),
		Novelty:    strings.TrimSpace(s.Novelty),
	}
}

// ToGenerationRequest 转为应用层请求
func (r *GenerateRecipeRequest) ToGenerationRequest() *recipe.GenerationRequest {
	items := make([]recipe.PantryItem, 0, len(r.PantryItems)+len(r.SelectedPantryItems))
	seen := make(map[string]bool, len(r.PantryItems))
	for _, item := range r.PantryItems {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		seen[strings.ToLower(name)] = true
		items = append(items, recipe.PantryItem{
			Name:      name,
			Quantity:  strings.TrimSpace(item.Quantity),
			Selection: strings.TrimSpace(item.Selection),
		})
	}
	for name, selection := range r.SelectedPantryItems {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		items = append(items, recipe.PantryItem{
			Name:      name,
			Selection: strings.TrimSpace(selection),
		})
	}

	return &recipe.GenerationRequest{
		Concept:             r.Concept,
		DietaryConstraints:  r.DietaryConstraints,
		TimeConstraints:     r.TimeConstraints,
		SkillLevel:          r.SkillLevel,
		CostPreference:      r.CostPreference,
		ExcludedIngredients: r.ExcludedIngredients,
		IncludedIngredients: r.IncludedIngredients,
		CuisineType:         r.CuisineType,
		MealType:            r.MealType,
		SpicinessLevel:      r.SpicinessLevel,
		TargetServings:      r.TargetServings,
		PantryMode:          r.PantryMode,
		PantryItems:         items,
		UserStyle:           r.UserStyle.toDomain(),
		AllowedEquipment:    r.AllowedEquipment,
	}
}

// ToModificationRequest 转为应用层请求，baseRecipe 按容错规则解析
func (r *ModifyRecipeRequest) ToModificationRequest() (*recipe.ModificationRequest, error) {
	var base recipe.Recipe
	if err := json.Unmarshal(r.BaseRecipe, &base); err != nil {
		return nil, err
	}
	return &recipe.ModificationRequest{
		BaseRecipe:               &base,
		ModificationInstructions: r.ModificationInstructions,
		UserStyle:                r.UserStyle.toDomain(),
		AllowedEquipment:         r.AllowedEquipment,
	}, nil
}

// ToImportRequest 转为应用层请求
func (r *ImportRecipeRequest) ToImportRequest() *recipe.ImportRequest {
	return &recipe.ImportRequest{
		Type:    strings.TrimSpace(r.ImportRequest.Type),
		Content: r.ImportRequest.Content,
	}
}
