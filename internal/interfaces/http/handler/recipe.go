package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"culinova-ai-api/internal/application/recipe"
	"culinova-ai-api/internal/config"
	"culinova-ai-api/internal/interfaces/http/dto"
	"culinova-ai-api/pkg/logger"
)

// RecipeHandler 菜谱接口处理器
type RecipeHandler struct {
	cfg      *config.Config
	pipeline *recipe.Pipeline
}

// NewRecipeHandler 创建菜谱处理器
func NewRecipeHandler(cfg *config.Config, pipeline *recipe.Pipeline) *RecipeHandler {
	return &RecipeHandler{
		cfg:      cfg,
		pipeline: pipeline,
	}
}

// Generate 根据概念生成菜谱
// @Summary 生成菜谱
// @Description 根据概念和约束生成结构化菜谱
// @Tags Recipe
// @Accept json
// @Produce json
// @Param body body dto.GenerateRecipeRequest true "生成请求"
// @Success 200 {object} dto.RecipeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/recipes/generate [post]
func (h *RecipeHandler) Generate(c *gin.Context) {
	var req dto.GenerateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.RespondError(c, http.StatusBadRequest, "Invalid request body", recipe.ErrTypeVagueConcept, nil)
		return
	}

	appReq := req.ToGenerationRequest()
	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.RespondError(c, http.StatusBadRequest, err.Error(), recipe.ErrTypeServiceError, nil)
		return
	}
	appReq.Provider = provider
	appReq.Model = model

	res, err := h.pipeline.Generate(c.Request.Context(), appReq)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	dto.RespondRecipe(c, res.Recipe, res.Warnings, res.UsedFallback, res.UsedRepair, res.HardErrors)
}

// Modify 修改既有菜谱
// @Summary 修改菜谱
// @Description 按指令修改既有菜谱并重新校验
// @Tags Recipe
// @Accept json
// @Produce json
// @Param body body dto.ModifyRecipeRequest true "修改请求"
// @Success 200 {object} dto.RecipeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/recipes/modify [post]
func (h *RecipeHandler) Modify(c *gin.Context) {
	var req dto.ModifyRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.RespondError(c, http.StatusBadRequest, "Invalid request body", recipe.ErrTypeVagueConcept, nil)
		return
	}

	appReq, err := req.ToModificationRequest()
	if err != nil {
		dto.RespondError(c, http.StatusBadRequest, "Invalid base recipe", recipe.ErrTypeVagueConcept, nil)
		return
	}
	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.RespondError(c, http.StatusBadRequest, err.Error(), recipe.ErrTypeServiceError, nil)
		return
	}
	appReq.Provider = provider
	appReq.Model = model

	res, err := h.pipeline.Modify(c.Request.Context(), appReq)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	dto.RespondRecipe(c, res.Recipe, res.Warnings, res.UsedFallback, res.UsedRepair, res.HardErrors)
}

// Import 从 URL 或文本导入菜谱
// @Summary 导入菜谱
// @Description 抓取外部内容并转写为结构化菜谱
// @Tags Recipe
// @Accept json
// @Produce json
// @Param body body dto.ImportRecipeRequest true "导入请求"
// @Success 200 {object} dto.RecipeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/recipes/import [post]
func (h *RecipeHandler) Import(c *gin.Context) {
	var req dto.ImportRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.RespondError(c, http.StatusBadRequest, "Invalid request body", recipe.ErrTypeVagueConcept, nil)
		return
	}

	appReq := req.ToImportRequest()
	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.RespondError(c, http.StatusBadRequest, err.Error(), recipe.ErrTypeServiceError, nil)
		return
	}
	appReq.Provider = provider
	appReq.Model = model

	res, err := h.pipeline.Import(c.Request.Context(), appReq)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	dto.RespondRecipe(c, res.Recipe, res.Warnings, res.UsedFallback, res.UsedRepair, res.HardErrors)
}

// Dispatch 兼容端点：按 operation 字段或请求形态分发
// @Summary 菜谱统一入口
// @Description 根据请求体分发到生成、修改或导入
// @Tags Recipe
// @Accept json
// @Produce json
// @Param body body dto.DispatchRecipeRequest true "请求"
// @Success 200 {object} dto.RecipeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/recipes [post]
func (h *RecipeHandler) Dispatch(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		dto.RespondError(c, http.StatusBadRequest, "Invalid request body", recipe.ErrTypeVagueConcept, nil)
		return
	}

	var probe dto.DispatchRecipeRequest
	if err := json.Unmarshal(body, &probe); err != nil {
		dto.RespondError(c, http.StatusBadRequest, "Invalid request body", recipe.ErrTypeVagueConcept, nil)
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, probe.Provider, probe.Model)
	if err != nil {
		dto.RespondError(c, http.StatusBadRequest, err.Error(), recipe.ErrTypeServiceError, nil)
		return
	}

	var res *recipe.Result
	switch op := probe.ResolveOperation(); op {
	case "modify":
		modReq := &dto.ModifyRecipeRequest{
			BaseRecipe:               probe.BaseRecipe,
			ModificationInstructions: probe.ModificationInstructions,
			UserStyle:                probe.UserStyle,
			AllowedEquipment:         probe.AllowedEquipment,
		}
		appReq, convErr := modReq.ToModificationRequest()
		if convErr != nil {
			dto.RespondError(c, http.StatusBadRequest, "Invalid base recipe", recipe.ErrTypeVagueConcept, nil)
			return
		}
		appReq.Provider = provider
		appReq.Model = model
		res, err = h.pipeline.Modify(c.Request.Context(), appReq)
	case "import":
		if probe.ImportRequest == nil {
			dto.RespondError(c, http.StatusBadRequest, "Missing importRequest", recipe.ErrTypeVagueConcept, nil)
			return
		}
		appReq := &recipe.ImportRequest{
			Type:     probe.ImportRequest.Type,
			Content:  probe.ImportRequest.Content,
			Provider: provider,
			Model:    model,
		}
		res, err = h.pipeline.Import(c.Request.Context(), appReq)
	default:
		appReq := probe.GenerateRecipeRequest.ToGenerationRequest()
		appReq.Provider = provider
		appReq.Model = model
		res, err = h.pipeline.Generate(c.Request.Context(), appReq)
	}

	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	dto.RespondRecipe(c, res.Recipe, res.Warnings, res.UsedFallback, res.UsedRepair, res.HardErrors)
}

// respondPipelineError 把流水线错误映射为 HTTP 状态码
func (h *RecipeHandler) respondPipelineError(c *gin.Context, err error) {
	var perr *recipe.PipelineError
	if !errors.As(err, &perr) {
		logger.Error(c.Request.Context(), "unexpected pipeline failure", err)
		dto.RespondError(c, http.StatusInternalServerError, "Internal server error", recipe.ErrTypeServiceError, nil)
		return
	}

	status := http.StatusInternalServerError
	switch perr.Type {
	case recipe.ErrTypeVagueConcept, recipe.ErrTypeConstraintConflict:
		status = http.StatusBadRequest
	case recipe.ErrTypeValidationFailed:
		status = http.StatusUnprocessableEntity
	case recipe.ErrTypeServiceError:
		status = http.StatusBadGateway
	}
	dto.RespondError(c, status, perr.Message, perr.Type, perr.Suggestions)
}
