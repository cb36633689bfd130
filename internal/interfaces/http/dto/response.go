// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RecipeResponse 成功响应。response 字段是菜谱对象的 JSON 字符串，
// 保持与历史客户端的兼容。
type RecipeResponse struct {
	Success          bool     `json:"success"`
	Response         string   `json:"response"`
	Warnings         []string `json:"warnings"`
	UsedFallback     bool     `json:"usedFallback"`
	UsedRepairPrompt bool     `json:"usedRepairPrompt,omitempty"`
	HardErrors       []string `json:"hardErrors,omitempty"`
}

// ErrorResponse 失败响应，type 是稳定的错误分类
type ErrorResponse struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error"`
	Type        string   `json:"type"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// RespondRecipe 写成功响应
func RespondRecipe(c *gin.Context, recipe any, warnings []string, usedFallback, usedRepair bool, hardErrors []string) {
	payload, err := json.Marshal(recipe)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to serialize recipe", "service_error", nil)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, RecipeResponse{
		Success:          true,
		Response:         string(payload),
		Warnings:         warnings,
		UsedFallback:     usedFallback,
		UsedRepairPrompt: usedRepair,
		HardErrors:       hardErrors,
	})
}

// RespondError 写失败响应
func RespondError(c *gin.Context, status int, message, errType string, suggestions []string) {
	c.JSON(status, ErrorResponse{
		Success:     false,
		Error:       message,
		Type:        errType,
		Suggestions: suggestions,
	})
}
