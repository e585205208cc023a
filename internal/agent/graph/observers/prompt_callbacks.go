package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// newPromptHandler logs rendered prompts at debug level.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output == nil || len(output.Result) == 0 || output.Result[0] == nil {
				return ctx
			}
			logx.Debug().
				Str("prompt", info.Name).
				Int("messages", len(output.Result)).
				Str("rendered", truncate(output.Result[0].Content)).
				Msg("Prompt rendered")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("prompt", info.Name).Msg("Prompt render failed")
			return ctx
		},
	}
}
