// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"culinova-ai-api/internal/domain/entity"
)

type RecipeRunRepository interface {
	Create(ctx context.Context, run *entity.RecipeRun) error
}
