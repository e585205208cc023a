package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	agentmodel "github.com/novagestion/asesoria-server/internal/agent/model"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

const maxLoggedContent = 512

// newModelHandler logs model calls and accounts their token usage and cost.
func newModelHandler(metrics *Metrics) *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			if input == nil {
				return ctx
			}
			logx.Debug().
				Str("model_type", info.Type).
				Int("messages", len(input.Messages)).
				Str("user", truncate(lastUserContent(input.Messages))).
				Msg("Model call started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			modelName := ""
			if output.Config != nil {
				modelName = output.Config.Model
			}
			ev := logx.Debug().Str("model_type", info.Type).Str("model", modelName)
			if output.Message != nil {
				ev = ev.Str("assistant", truncate(strings.TrimSpace(output.Message.Content)))
			}

			if u := output.TokenUsage; u != nil {
				inC, outC, totalC := agentmodel.ComputeCost(u.PromptTokens, u.CompletionTokens, agentmodel.ResolvePricing(modelName))
				agentmodel.UsageTallyFrom(ctx).Add(u.PromptTokens, u.CompletionTokens, totalC)
				metrics.observeUsage(modelName, u.PromptTokens, u.CompletionTokens, totalC)
				ev = ev.
					Int("prompt_tokens", u.PromptTokens).
					Int("completion_tokens", u.CompletionTokens).
					Int("total_tokens", u.TotalTokens).
					Float64("input_cost_usd", inC).
					Float64("output_cost_usd", outC).
					Float64("total_cost_usd", totalC)
			}
			ev.Msg("Model call finished")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("model_type", info.Type).Msg("Model call failed")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLoggedContent {
		return s
	}
	return string(r[:maxLoggedContent]) + "…"
}
