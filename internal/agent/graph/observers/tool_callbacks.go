package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// newToolHandler logs data capability calls made through tools.Run.
func newToolHandler() *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			if input == nil {
				return ctx
			}
			logx.Debug().Str("tool", info.Name).Str("arguments", truncate(input.ArgumentsInJSON)).Msg("Tool started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			logx.Debug().Str("tool", info.Name).Str("response", truncate(output.Response)).Msg("Tool finished")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("tool", info.Name).Msg("Tool failed")
			return ctx
		},
	}
}
