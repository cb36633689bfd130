package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "culinova-ai-api/internal/domain/service"
	wfmodel "culinova-ai-api/internal/workflow/model"
	wfnode "culinova-ai-api/internal/workflow/node"
	workflowport "culinova-ai-api/internal/workflow/port"
	workflowprompt "culinova-ai-api/internal/workflow/prompt"
	"culinova-ai-api/pkg/logger"
)

type RecipeChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.RecipeChainInput, *schema.Message]
	chainErr  error
}

func NewRecipeChain(factory workflowport.ChatModelFactory) *RecipeChain {
	return &RecipeChain{factory: factory}
}

func (c *RecipeChain) Invoke(ctx context.Context, in *wfmodel.RecipeChainInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type recipeChainState struct {
	In       *wfmodel.RecipeChainInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *RecipeChain) getChain() (compose.Runnable[*wfmodel.RecipeChainInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *RecipeChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.RecipeChainInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.RecipeChainInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.RecipeChainInput) (*recipeChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &recipeChainState{In: in}, nil
		}),
		compose.WithNodeName("recipe.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *recipeChainState) (*recipeChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatRecipeMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("recipe.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *recipeChainState) (*recipeChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, st.In.Workflow, strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildRecipeModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_object not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildRecipeModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("recipe.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *recipeChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("recipe.finalize"),
	)

	return chain.Compile(ctx)
}

var defaultPromptRegistry = workflowprompt.NewRegistry()

func formatRecipeMessages(ctx context.Context, in *wfmodel.RecipeChainInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(in.PromptID)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, in.Vars)
}

func buildRecipeModelOptions(in *wfmodel.RecipeChainInput, enableJSONFormat bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}

	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}

	if enableJSONFormat {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_object",
			},
		}))
	}

	return opts
}
