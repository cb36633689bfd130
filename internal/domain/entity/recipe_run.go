// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// RecipeRun 一次菜谱生成请求的终态记录（仅追加，不更新不删除）
type RecipeRun struct {
	ID               string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Operation        string          `json:"operation" gorm:"type:varchar(16);index;not null"`
	Provider         string          `json:"provider" gorm:"type:varchar(32);not null"`
	Model            string          `json:"model" gorm:"type:varchar(64);not null"`
	Temperature      float64         `json:"temperature" gorm:"not null;default:0"`
	UsedJSONFallback bool            `json:"used_json_fallback" gorm:"column:used_json_fallback;not null;default:false"`
	UsedRepairPrompt bool            `json:"used_repair_prompt" gorm:"not null;default:false"`
	HardError        bool            `json:"hard_error" gorm:"not null;default:false"`
	Warnings         json.RawMessage `json:"warnings,omitempty" gorm:"type:jsonb"`
	RequestJSON      json.RawMessage `json:"request_json,omitempty" gorm:"type:jsonb"`
	ResponseJSON     json.RawMessage `json:"response_json,omitempty" gorm:"type:jsonb"`
	RawOutput        string          `json:"raw_output,omitempty" gorm:"type:text"`
	LatencyMs        int             `json:"latency_ms" gorm:"not null;default:0"`
	PromptVersion    string          `json:"prompt_version,omitempty" gorm:"type:varchar(32)"`
	SchemaVersion    int             `json:"schema_version" gorm:"not null;default:0"`
	CreatedAt        time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (RecipeRun) TableName() string {
	return "recipe_runs"
}
