package recipe

import (
	"encoding/json"
	"fmt"
	"strings"

	wfnode "culinova-ai-api/internal/workflow/node"
)

// Candidate 解析出的候选菜谱。Raw 保留原始键集合供结构校验，
// Recipe 是容错解析后的类型化视图。
type Candidate struct {
	Recipe       *Recipe
	Raw          map[string]any
	UsedFallback bool
}

// ParseCandidate 解析模型输出。先按严格 JSON 解析；失败时
// 截取首个 { 到末个 } 的子串重试，并标记 UsedFallback。
func ParseCandidate(content string) (*Candidate, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("empty model output")
	}

	if c, err := decodeCandidate(trimmed); err == nil {
		return c, nil
	}

	extracted := wfnode.ExtractJSONObject(trimmed)
	if extracted == trimmed {
		return nil, fmt.Errorf("model output is not valid JSON")
	}
	c, err := decodeCandidate(extracted)
	if err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	c.UsedFallback = true
	return c, nil
}

func decodeCandidate(s string) (*Candidate, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	return &Candidate{Recipe: decodeRecipe([]byte(s)), Raw: raw}, nil
}

// decodeRecipe 逐字段容错解码。类型不对的字段保持零值，
// 由硬校验报错并进入修复，而不是在解析阶段判终态。
func decodeRecipe(data []byte) *Recipe {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return &Recipe{}
	}

	r := &Recipe{}
	set := func(key string, dst any) {
		if v, ok := fields[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	set("title", &r.Title)
	set("description", &r.Description)
	set("prepTimeMinutes", &r.PrepTimeMinutes)
	set("cookTimeMinutes", &r.CookTimeMinutes)
	set("totalTimeMinutes", &r.TotalTimeMinutes)
	set("servings", &r.Servings)
	set("caloriesPerServing", &r.CaloriesPerServing)
	set("difficulty", &r.Difficulty)
	set("cuisineType", &r.CuisineType)
	set("ingredients", &r.Ingredients)
	set("steps", &r.Steps)
	set("equipment", &r.Equipment)
	set("tags", &r.Tags)
	set("twists", &r.Twists)
	set("userStyle", &r.UserStyle)
	set("alignmentNotes", &r.AlignmentNotes)
	set("qualityChecks", &r.QualityChecks)
	set("schemaVersion", &r.SchemaVersion)
	return r
}
