//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"culinova-ai-api/internal/application/recipe"
	"culinova-ai-api/internal/application/runlog"
	"culinova-ai-api/internal/config"
	"culinova-ai-api/internal/domain/repository"
	"culinova-ai-api/internal/infrastructure/llm"
	"culinova-ai-api/internal/infrastructure/persistence/postgres"
	"culinova-ai-api/internal/infrastructure/persistence/redis"
	"culinova-ai-api/internal/interfaces/http/handler"
	"culinova-ai-api/internal/interfaces/http/middleware"
	"culinova-ai-api/internal/interfaces/http/router"
	workflowchain "culinova-ai-api/internal/workflow/chain"
	workflowport "culinova-ai-api/internal/workflow/port"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		PipelineSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewRecipeRunRepository,
	wire.Bind(new(repository.RecipeRunRepository), new(*postgres.RecipeRunRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// PipelineSet 菜谱流水线提供者集合
var PipelineSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	workflowchain.NewRecipeChain,
	wire.Bind(new(recipe.ModelInvoker), new(*workflowchain.RecipeChain)),
	recipe.NewPageFetcher,
	wire.Bind(new(recipe.ContentFetcher), new(*recipe.PageFetcher)),
	ProvideRunRecorder,
	wire.Bind(new(recipe.RunRecorder), new(*runlog.Recorder)),
	recipe.NewPipeline,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewRecipeHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRunRecorder 提供运行日志写入器
func ProvideRunRecorder(repo repository.RecipeRunRepository) (*runlog.Recorder, func()) {
	recorder := runlog.NewRecorder(repo)
	cleanup := func() {
		recorder.Close()
	}
	return recorder, cleanup
}
