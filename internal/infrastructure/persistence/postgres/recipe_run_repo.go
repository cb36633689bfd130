// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"culinova-ai-api/internal/domain/entity"
)

type RecipeRunRepository struct {
	client *Client
}

func NewRecipeRunRepository(client *Client) *RecipeRunRepository {
	return &RecipeRunRepository{client: client}
}

func (r *RecipeRunRepository) Create(ctx context.Context, run *entity.RecipeRun) error {
	ctx, span := tracer.Start(ctx, "postgres.RecipeRunRepository.Create")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	if err := db.Create(run).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create recipe run: %w", err)
	}
	return nil
}
