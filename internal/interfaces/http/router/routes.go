// Package router 提供 HTTP 路由配置
package router

import (
	"culinova-ai-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	recipeHandler *handler.RecipeHandler,
) {
	// 菜谱流水线
	recipes := v1.Group("/recipes")
	{
		recipes.POST("", recipeHandler.Dispatch)
		recipes.POST("/generate", recipeHandler.Generate)
		recipes.POST("/modify", recipeHandler.Modify)
		recipes.POST("/import", recipeHandler.Import)
	}
}
