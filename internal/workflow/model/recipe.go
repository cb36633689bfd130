package model

import (
	workflowprompt "culinova-ai-api/internal/workflow/prompt"
)

// RecipeChainInput 一次菜谱 LLM 调用的输入
type RecipeChainInput struct {
	// Workflow 调用场景标识（recipe_generate / recipe_modify / recipe_repair / recipe_import）
	Workflow string
	PromptID workflowprompt.PromptID
	// Vars 模板变量，由应用层的 PromptBuilder 组装
	Vars map[string]any

	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// LLMUsageMeta 单次调用的用量元信息
type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Temperature      float64
}
