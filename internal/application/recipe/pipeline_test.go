package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"culinova-ai-api/internal/application/runlog"
	"culinova-ai-api/internal/config"
	wfmodel "culinova-ai-api/internal/workflow/model"
	workflowprompt "culinova-ai-api/internal/workflow/prompt"
)

type fakeInvoker struct {
	calls     []*wfmodel.RecipeChainInput
	responses []string
	errs      []error
}

func (f *fakeInvoker) Invoke(_ context.Context, in *wfmodel.RecipeChainInput) (*schema.Message, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, in)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx >= len(f.responses) {
		return nil, errors.New("no scripted response")
	}
	return schema.AssistantMessage(f.responses[idx], nil), nil
}

type fakeRecorder struct {
	entries []*runlog.Entry
}

func (f *fakeRecorder) Record(_ context.Context, e *runlog.Entry) {
	f.entries = append(f.entries, e)
}

type fakeFetcher struct {
	content string
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.content, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			GenerateTemperature:   0.5,
			ModifyTemperature:     0.4,
			RepairTemperature:     0.2,
			ImportTemperature:     0.2,
			MaxTokens:             6000,
			CallTimeout:           30 * time.Second,
			RepairEnabled:         true,
			ImportMaxContentChars: 20000,
		},
	}
}

// modelRecipe 构造一份字段齐全、能通过 simple/tried_true 校验的模型输出
func modelRecipe(mutate func(map[string]any)) string {
	doc := map[string]any{
		"title":           "Lemon Chicken",
		"description":     "Bright and simple",
		"prepTimeMinutes": 15,
		"cookTimeMinutes": 30,
		"servings":        4,
		"difficulty":      "easy",
		"ingredients": []map[string]any{
			{"name": "chicken thighs", "quantity": "500", "unit": "g"},
			{"name": "lemon", "quantity": "1"},
			{"name": "rosemary", "quantity": "2", "unit": "sprigs"},
			{"name": "salt"},
			{"name": "pepper"},
			{"name": "olive oil", "quantity": "2", "unit": "tbsp"},
		},
		"steps": []string{
			"Season the chicken thighs with salt and pepper.",
			"Sear the chicken in olive oil until golden.",
			"Add lemon juice and rosemary.",
			"Cover and cook through.",
			"Rest and serve.",
		},
		"tags":      []string{"dinner"},
		"twists":    []map[string]any{},
		"userStyle": map[string]any{"complexity": "simple", "novelty": "tried_true"},
		"alignmentNotes": map[string]any{
			"readback":           "A simple lemon chicken.",
			"constraintsApplied": []string{},
			"pantryUsed":         []string{},
			"assumptions":        []string{},
			"tradeoffs":          []string{},
			"quickTweaks":        []string{},
		},
		"qualityChecks": map[string]any{
			"majorIngredientsReferencedInSteps": true,
			"dietaryCompliance":                 true,
			"timeConstraintCompliance":          true,
			"unitSanity":                        true,
			"equipmentMatch":                    true,
			"warnings":                          []string{},
		},
	}
	if mutate != nil {
		mutate(doc)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func generationRequest() *GenerationRequest {
	return &GenerationRequest{
		Concept:   "lemon chicken for a weeknight",
		UserStyle: &UserStyle{Complexity: ComplexitySimple, Novelty: NoveltyTriedTrue},
	}
}

func TestPipelineGenerateHappyPath(t *testing.T) {
	invoker := &fakeInvoker{responses: []string{modelRecipe(nil)}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	res, err := p.Generate(context.Background(), generationRequest())

	require.NoError(t, err)
	require.Len(t, invoker.calls, 1)
	assert.Equal(t, workflowprompt.PromptRecipeGenV1, invoker.calls[0].PromptID)
	assert.Equal(t, "recipe_generate", invoker.calls[0].Workflow)
	require.NotNil(t, invoker.calls[0].Temperature)
	assert.InDelta(t, 0.5, float64(*invoker.calls[0].Temperature), 0.001)

	assert.Equal(t, "Lemon Chicken", res.Recipe.Title)
	assert.Empty(t, res.HardErrors)
	assert.False(t, res.UsedRepair)
	assert.False(t, res.UsedFallback)
	require.NotNil(t, res.Recipe.QualityChecks)
	assert.False(t, res.Recipe.QualityChecks.UsedRepairPrompt)
	assert.False(t, res.Recipe.QualityChecks.UsedJSONExtractionFallback)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "generate", recorder.entries[0].Operation)
	assert.False(t, recorder.entries[0].HardError)
	assert.False(t, recorder.entries[0].UsedRepairPrompt)
}

func TestPipelineGenerateRepairsTwistViolation(t *testing.T) {
	broken := modelRecipe(func(doc map[string]any) {
		doc["twists"] = []map[string]any{{"description": "add chili", "isOptional": true}}
	})
	invoker := &fakeInvoker{responses: []string{broken, modelRecipe(nil)}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	res, err := p.Generate(context.Background(), generationRequest())

	require.NoError(t, err)
	require.Len(t, invoker.calls, 2)
	assert.Equal(t, workflowprompt.PromptRecipeRepairV1, invoker.calls[1].PromptID)
	require.NotNil(t, invoker.calls[1].Temperature)
	assert.InDelta(t, 0.2, float64(*invoker.calls[1].Temperature), 0.001)

	assert.True(t, res.UsedRepair)
	assert.Empty(t, res.HardErrors)
	require.NotNil(t, res.Recipe.QualityChecks)
	assert.True(t, res.Recipe.QualityChecks.UsedRepairPrompt)

	require.Len(t, recorder.entries, 1)
	assert.True(t, recorder.entries[0].UsedRepairPrompt)
	assert.False(t, recorder.entries[0].HardError)
}

// 类型不对的字段（标题是数字）要走硬校验进修复，而不是按解析失败终止
func TestPipelineWrongTypedFieldTriggersRepair(t *testing.T) {
	broken := modelRecipe(func(doc map[string]any) {
		doc["title"] = 123
	})
	invoker := &fakeInvoker{responses: []string{broken, modelRecipe(nil)}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	res, err := p.Generate(context.Background(), generationRequest())

	require.NoError(t, err)
	require.Len(t, invoker.calls, 2)
	assert.Equal(t, workflowprompt.PromptRecipeRepairV1, invoker.calls[1].PromptID)
	assert.True(t, res.UsedRepair)
	assert.Equal(t, "Lemon Chicken", res.Recipe.Title)
	assert.Empty(t, res.HardErrors)
}

func TestPipelineRepairFailureFallsBackToOriginal(t *testing.T) {
	broken := modelRecipe(func(doc map[string]any) {
		doc["twists"] = []map[string]any{{"description": "add chili", "isOptional": true}}
	})
	invoker := &fakeInvoker{
		responses: []string{broken, ""},
		errs:      []error{nil, errors.New("upstream timeout")},
	}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	res, err := p.Generate(context.Background(), generationRequest())

	require.NoError(t, err)
	require.Len(t, invoker.calls, 2)
	assert.False(t, res.UsedRepair)
	assert.Contains(t, res.HardErrors, "tried_true recipes must have empty twists array")
	// 硬错误附加到 qualityChecks.warnings 供展示
	assert.Contains(t, res.Recipe.QualityChecks.Warnings, "tried_true recipes must have empty twists array")

	require.Len(t, recorder.entries, 1)
	assert.True(t, recorder.entries[0].HardError)
	assert.False(t, recorder.entries[0].UsedRepairPrompt)
}

func TestPipelineRepairStillInvalidDeliversWithHardErrors(t *testing.T) {
	broken := modelRecipe(func(doc map[string]any) {
		doc["twists"] = []map[string]any{{"description": "add chili", "isOptional": true}}
	})
	invoker := &fakeInvoker{responses: []string{broken, broken}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	res, err := p.Generate(context.Background(), generationRequest())

	require.NoError(t, err)
	require.Len(t, invoker.calls, 2, "at most one repair round")
	assert.True(t, res.UsedRepair)
	assert.Contains(t, res.HardErrors, "tried_true recipes must have empty twists array")
}

func TestPipelineParseFailureIsTerminal(t *testing.T) {
	invoker := &fakeInvoker{responses: []string{"I refuse to answer in JSON."}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	_, err := p.Generate(context.Background(), generationRequest())

	require.Error(t, err)
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrTypeServiceError, perr.Type)
	assert.Equal(t, "Failed to generate recipe. Please try again.", perr.Message)

	// 解析失败不触发修复
	assert.Len(t, invoker.calls, 1)
	require.Len(t, recorder.entries, 1)
	assert.True(t, recorder.entries[0].HardError)
}

func TestPipelineTransportFailureIsTerminal(t *testing.T) {
	invoker := &fakeInvoker{errs: []error{errors.New("connection refused")}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	_, err := p.Generate(context.Background(), generationRequest())

	require.Error(t, err)
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrTypeServiceError, perr.Type)
	assert.Len(t, invoker.calls, 1)
}

func TestPipelineSchemaMissingAfterRepairFails(t *testing.T) {
	missingTitle := modelRecipe(func(doc map[string]any) {
		delete(doc, "title")
	})
	invoker := &fakeInvoker{responses: []string{missingTitle, missingTitle}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	_, err := p.Generate(context.Background(), generationRequest())

	require.Error(t, err)
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrTypeValidationFailed, perr.Type)
	assert.Contains(t, perr.Message, "title")
	assert.Len(t, invoker.calls, 2)
}

func TestPipelinePrecheckSkipsModelAndLog(t *testing.T) {
	invoker := &fakeInvoker{}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	_, err := p.Generate(context.Background(), &GenerationRequest{Concept: "ab"})

	require.Error(t, err)
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrTypeVagueConcept, perr.Type)
	assert.Empty(t, invoker.calls)
	assert.Empty(t, recorder.entries)
}

func TestPipelineFallbackParseIsRecorded(t *testing.T) {
	wrapped := "Sure! Here it is:\n" + modelRecipe(nil) + "\nEnjoy."
	invoker := &fakeInvoker{responses: []string{wrapped}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	res, err := p.Generate(context.Background(), generationRequest())

	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	require.NotNil(t, res.Recipe.QualityChecks)
	assert.True(t, res.Recipe.QualityChecks.UsedJSONExtractionFallback)
	require.Len(t, recorder.entries, 1)
	assert.True(t, recorder.entries[0].UsedJSONFallback)
	assert.NotEmpty(t, recorder.entries[0].RawOutput)
}

func TestPipelineModify(t *testing.T) {
	invoker := &fakeInvoker{responses: []string{modelRecipe(nil)}}
	recorder := &fakeRecorder{}
	p := NewPipeline(testConfig(), invoker, recorder, &fakeFetcher{})

	base := validRecipe()
	res, err := p.Modify(context.Background(), &ModificationRequest{
		BaseRecipe:               base,
		ModificationInstructions: "make it spicier",
		UserStyle:                &UserStyle{Complexity: ComplexitySimple, Novelty: NoveltyTriedTrue},
	})

	require.NoError(t, err)
	require.Len(t, invoker.calls, 1)
	assert.Equal(t, workflowprompt.PromptRecipeModifyV1, invoker.calls[0].PromptID)
	assert.Equal(t, "recipe_modify", invoker.calls[0].Workflow)
	assert.InDelta(t, 0.4, float64(*invoker.calls[0].Temperature), 0.001)
	assert.NotNil(t, res.Recipe)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "modify", recorder.entries[0].Operation)
}

func TestPipelineModifyRequiresInstructions(t *testing.T) {
	p := NewPipeline(testConfig(), &fakeInvoker{}, &fakeRecorder{}, &fakeFetcher{})

	_, err := p.Modify(context.Background(), &ModificationRequest{BaseRecipe: validRecipe()})

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrTypeVagueConcept, perr.Type)
}

func TestPipelineImportText(t *testing.T) {
	imported := modelRecipe(func(doc map[string]any) {
		// 导入走宽松校验：数量窗口外也不告警
		doc["ingredients"] = []map[string]any{
			{"name": "bread", "quantity": "2", "unit": "slices"},
			{"name": "cheese", "quantity": "50", "unit": "g"},
		}
		doc["steps"] = []string{"Assemble the sandwich with the bread and cheese.", "Toast it."}
	})
	invoker := &fakeInvoker{responses: []string{imported}}
	recorder := &fakeRecorder{}
	fetcher := &fakeFetcher{}
	p := NewPipeline(testConfig(), invoker, recorder, fetcher)

	res, err := p.Import(context.Background(), &ImportRequest{
		Type:    ImportTypeText,
		Content: "Grandma's grilled cheese: bread, cheese, butter. Toast until golden.",
	})

	require.NoError(t, err)
	assert.Zero(t, fetcher.calls, "text import must not fetch")
	require.Len(t, invoker.calls, 1)
	assert.Equal(t, workflowprompt.PromptRecipeImportV1, invoker.calls[0].PromptID)
	assert.InDelta(t, 0.2, float64(*invoker.calls[0].Temperature), 0.001)
	assert.Empty(t, res.HardErrors)
	assert.Empty(t, res.Warnings)
}

func TestPipelineImportURLUsesFetcher(t *testing.T) {
	invoker := &fakeInvoker{responses: []string{modelRecipe(nil)}}
	fetcher := &fakeFetcher{content: "Fetched recipe page text"}
	p := NewPipeline(testConfig(), invoker, &fakeRecorder{}, fetcher)

	_, err := p.Import(context.Background(), &ImportRequest{
		Type:    ImportTypeURL,
		Content: "https://example.com/recipe",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
}

func TestPipelineImportFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("dns failure")}
	invoker := &fakeInvoker{}
	p := NewPipeline(testConfig(), invoker, &fakeRecorder{}, fetcher)

	_, err := p.Import(context.Background(), &ImportRequest{
		Type:    ImportTypeURL,
		Content: "https://example.com/recipe",
	})

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrTypeServiceError, perr.Type)
	assert.Empty(t, invoker.calls)
}
