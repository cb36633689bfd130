package recipe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"culinova-ai-api/internal/application/runlog"
	"culinova-ai-api/internal/config"
	wfmodel "culinova-ai-api/internal/workflow/model"
	wfnode "culinova-ai-api/internal/workflow/node"
	workflowprompt "culinova-ai-api/internal/workflow/prompt"
	"culinova-ai-api/pkg/logger"
	"culinova-ai-api/pkg/metrics"
)

// ModelInvoker 模型调用边界，生产实现是 chain.RecipeChain
type ModelInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.RecipeChainInput) (*schema.Message, error)
}

// RunRecorder 运行日志边界
type RunRecorder interface {
	Record(ctx context.Context, e *runlog.Entry)
}

// ContentFetcher 导入场景的页面抓取边界
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Pipeline 菜谱生成流水线：构造提示词、调用模型、解析、
// 校验，必要时做至多一次修复，最后异步落运行日志。
type Pipeline struct {
	cfg      *config.Config
	invoker  ModelInvoker
	recorder RunRecorder
	fetcher  ContentFetcher
}

func NewPipeline(cfg *config.Config, invoker ModelInvoker, recorder RunRecorder, fetcher ContentFetcher) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		invoker:  invoker,
		recorder: recorder,
		fetcher:  fetcher,
	}
}

// runParams 单次流水线运行的全部输入
type runParams struct {
	operation   string
	workflow    string
	promptID    workflowprompt.PromptID
	vars        map[string]any
	provider    string
	model       string
	temperature float64
	targets     StructureTargets
	vctx        ValidationContext
	request     any
}

// Generate 从概念生成菜谱
func (p *Pipeline) Generate(ctx context.Context, req *GenerationRequest) (*Result, error) {
	// 前置校验失败不产生运行日志
	if perr := PrecheckGeneration(req); perr != nil {
		return nil, perr
	}

	targets := ResolveStructureTargets(req.UserStyle)
	return p.run(ctx, runParams{
		operation:   "generate",
		workflow:    "recipe_generate",
		promptID:    workflowprompt.PromptRecipeGenV1,
		vars:        buildGenerationVars(req, targets),
		provider:    req.Provider,
		model:       req.Model,
		temperature: p.cfg.Pipeline.GenerateTemperature,
		targets:     targets,
		vctx: ValidationContext{
			UserStyle:        req.UserStyle,
			AllowedEquipment: req.AllowedEquipment,
		},
		request: req,
	})
}

// Modify 按指令修改既有菜谱
func (p *Pipeline) Modify(ctx context.Context, req *ModificationRequest) (*Result, error) {
	if req == nil || req.BaseRecipe == nil {
		return nil, &PipelineError{
			Type:        ErrTypeVagueConcept,
			Message:     "Please provide the recipe to modify",
			Suggestions: []string{"Include the current recipe in the request"},
		}
	}
	if strings.TrimSpace(req.ModificationInstructions) == "" {
		return nil, &PipelineError{
			Type:        ErrTypeVagueConcept,
			Message:     "Please describe what should change",
			Suggestions: []string{"Describe the modification you want"},
		}
	}

	style := req.UserStyle
	if style == nil {
		style = req.BaseRecipe.UserStyle
	}
	targets := ResolveStructureTargets(style)
	vars, err := buildModificationVars(req, targets)
	if err != nil {
		logger.Error(ctx, "failed to build modification prompt", err)
		return nil, newServiceError()
	}

	return p.run(ctx, runParams{
		operation:   "modify",
		workflow:    "recipe_modify",
		promptID:    workflowprompt.PromptRecipeModifyV1,
		vars:        vars,
		provider:    req.Provider,
		model:       req.Model,
		temperature: p.cfg.Pipeline.ModifyTemperature,
		targets:     targets,
		vctx: ValidationContext{
			UserStyle:        style,
			AllowedEquipment: req.AllowedEquipment,
		},
		request: req,
	})
}

// Import 从 URL 或纯文本导入菜谱。导入走宽松校验：
// 不强制 twist 约束与数量窗口。
func (p *Pipeline) Import(ctx context.Context, req *ImportRequest) (*Result, error) {
	if req == nil || strings.TrimSpace(req.Content) == "" {
		return nil, &PipelineError{
			Type:        ErrTypeVagueConcept,
			Message:     "Please provide content to import",
			Suggestions: []string{"Paste the recipe text or a URL"},
		}
	}

	content := strings.TrimSpace(req.Content)
	if req.Type == ImportTypeURL {
		fetched, err := p.fetcher.Fetch(ctx, content)
		if err != nil {
			logger.Warn(ctx, "failed to fetch import source",
				"url", content,
				"error", err.Error(),
			)
			return nil, newServiceError()
		}
		content = fetched
	}
	content = wfnode.TruncateByRunes(content, p.cfg.Pipeline.ImportMaxContentChars)

	return p.run(ctx, runParams{
		operation:   "import",
		workflow:    "recipe_import",
		promptID:    workflowprompt.PromptRecipeImportV1,
		vars:        buildImportVars(content),
		provider:    req.Provider,
		model:       req.Model,
		temperature: p.cfg.Pipeline.ImportTemperature,
		targets:     ResolveStructureTargets(nil),
		vctx:        ValidationContext{Relaxed: true},
		request:     req,
	})
}

// attempt 一次模型往返：调用、解析
func (p *Pipeline) attempt(ctx context.Context, params runParams, promptID workflowprompt.PromptID, vars map[string]any, temperature float64) (*Candidate, string, error) {
	callCtx := ctx
	if p.cfg.Pipeline.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.cfg.Pipeline.CallTimeout)
		defer cancel()
	}

	temp := float32(temperature)
	maxTokens := p.cfg.Pipeline.MaxTokens
	in := &wfmodel.RecipeChainInput{
		Workflow:    params.workflow,
		PromptID:    promptID,
		Vars:        vars,
		Provider:    params.provider,
		Model:       params.model,
		Temperature: &temp,
	}
	if maxTokens > 0 {
		in.MaxTokens = &maxTokens
	}

	msg, err := p.invoker.Invoke(callCtx, in)
	if err != nil {
		return nil, "", fmt.Errorf("llm call failed: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, "", fmt.Errorf("empty llm response")
	}

	cand, err := ParseCandidate(msg.Content)
	if err != nil {
		return nil, msg.Content, err
	}
	if cand.UsedFallback {
		metrics.RecipeParseFallbackTotal.WithLabelValues(params.operation).Inc()
	}
	return cand, msg.Content, nil
}

// run 执行状态机：初始调用 → 校验 → 至多一次修复 → 终态。
// 传输与解析错误是终态，不触发修复。
func (p *Pipeline) run(ctx context.Context, params runParams) (*Result, error) {
	start := time.Now()

	cand, rawOutput, err := p.attempt(ctx, params, params.promptID, params.vars, params.temperature)
	if err != nil {
		logger.Error(ctx, "recipe pipeline call failed", err,
			"operation", params.operation,
		)
		p.finish(ctx, params, start, "error", &runlog.Entry{
			Operation:     params.operation,
			Provider:      params.provider,
			Model:         params.model,
			Temperature:   params.temperature,
			HardError:     true,
			RequestJSON:   params.request,
			RawOutput:     rawOutput,
			PromptVersion: workflowprompt.Version,
			SchemaVersion: SchemaVersion,
		})
		return nil, newServiceError()
	}

	usedFallback := cand.UsedFallback
	schemaMissing := ValidateSchema(cand.Raw)
	vres := ValidateRecipe(cand.Recipe, params.vctx)
	hard := append(formatSchemaErrors(schemaMissing), vres.HardErrors...)
	usedRepair := false

	if len(hard) > 0 && p.cfg.Pipeline.RepairEnabled {
		logger.Warn(ctx, "recipe candidate failed validation, attempting repair",
			"operation", params.operation,
			"hard_errors", hard,
		)

		repairVars, verr := buildRepairVars(cand.Recipe, hard, params.targets)
		if verr != nil {
			metrics.RecipeRepairTotal.WithLabelValues(params.operation, "fell_back").Inc()
		} else {
			rcand, _, rerr := p.attempt(ctx, params, workflowprompt.PromptRecipeRepairV1, repairVars, p.cfg.Pipeline.RepairTemperature)
			if rerr != nil {
				// 修复失败回退到修复前的候选
				metrics.RecipeRepairTotal.WithLabelValues(params.operation, "fell_back").Inc()
				logger.Warn(ctx, "repair call failed, keeping original candidate",
					"operation", params.operation,
					"error", rerr.Error(),
				)
			} else {
				usedRepair = true
				usedFallback = usedFallback || rcand.UsedFallback
				cand = rcand
				schemaMissing = ValidateSchema(cand.Raw)
				vres = ValidateRecipe(cand.Recipe, params.vctx)
				hard = append(formatSchemaErrors(schemaMissing), vres.HardErrors...)
				if len(hard) == 0 {
					metrics.RecipeRepairTotal.WithLabelValues(params.operation, "fixed").Inc()
				} else {
					metrics.RecipeRepairTotal.WithLabelValues(params.operation, "still_invalid").Inc()
				}
			}
		}
	}
	// 服务端标记写进 qualityChecks，随产物一起返回
	if cand.Recipe != nil && cand.Recipe.QualityChecks != nil {
		cand.Recipe.QualityChecks.UsedJSONExtractionFallback = usedFallback
		cand.Recipe.QualityChecks.UsedRepairPrompt = usedRepair
	}

	entry := &runlog.Entry{
		Operation:        params.operation,
		Provider:         params.provider,
		Model:            params.model,
		Temperature:      params.temperature,
		UsedJSONFallback: usedFallback,
		UsedRepairPrompt: usedRepair,
		HardError:        len(hard) > 0,
		Warnings:         vres.Warnings,
		RequestJSON:      params.request,
		LatencyMs:        int(time.Since(start).Milliseconds()),
		PromptVersion:    workflowprompt.Version,
		SchemaVersion:    SchemaVersion,
	}
	if usedFallback {
		entry.RawOutput = rawOutput
	}

	// 修复后结构仍不完整：无法交付产物
	if len(schemaMissing) > 0 {
		p.finish(ctx, params, start, "invalid", entry)
		return nil, &PipelineError{
			Type:        ErrTypeValidationFailed,
			Message:     "Generated recipe is missing required fields: " + strings.Join(schemaMissing, ", "),
			Suggestions: []string{"Try again", "Simplify the recipe concept"},
		}
	}

	// 约束类硬错误不阻断交付，附加到 warnings 供前端展示
	if len(hard) > 0 {
		if cand.Recipe.QualityChecks != nil {
			cand.Recipe.QualityChecks.Warnings = append(cand.Recipe.QualityChecks.Warnings, hard...)
		}
		metrics.RecipeHardErrorsTotal.WithLabelValues(params.operation).Add(float64(len(hard)))
	}

	entry.ResponseJSON = cand.Recipe
	p.finish(ctx, params, start, "success", entry)

	return &Result{
		Recipe:       cand.Recipe,
		Warnings:     vres.Warnings,
		HardErrors:   hard,
		UsedFallback: usedFallback,
		UsedRepair:   usedRepair,
	}, nil
}

func (p *Pipeline) finish(ctx context.Context, params runParams, start time.Time, status string, entry *runlog.Entry) {
	metrics.RecipeRunTotal.WithLabelValues(params.operation, status).Inc()
	metrics.RecipeRunDuration.WithLabelValues(params.operation).Observe(time.Since(start).Seconds())
	if entry.LatencyMs == 0 {
		entry.LatencyMs = int(time.Since(start).Milliseconds())
	}
	if p.recorder != nil {
		p.recorder.Record(ctx, entry)
	}
}

func formatSchemaErrors(missing []string) []string {
	if len(missing) == 0 {
		return nil
	}
	errs := make([]string, 0, len(missing))
	for _, f := range missing {
		errs = append(errs, "Missing required field: "+f)
	}
	return errs
}
