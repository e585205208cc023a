package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"

	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

type nodeStartKey struct{}

// newNodeHandler times every lambda node of the graph.
func newNodeHandler(metrics *Metrics) einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if !isGraphNode(info) {
				return ctx
			}
			return context.WithValue(ctx, nodeStartKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			finishNode(ctx, info, metrics, nil)
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			finishNode(ctx, info, metrics, err)
			return ctx
		}).
		Build()
}

func isGraphNode(info *einocb.RunInfo) bool {
	return info != nil && info.Component == compose.ComponentOfLambda && info.Name != ""
}

func finishNode(ctx context.Context, info *einocb.RunInfo, metrics *Metrics, err error) {
	if !isGraphNode(info) {
		return
	}
	start, ok := ctx.Value(nodeStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	metrics.observeNode(info.Name, elapsed, err)

	if err != nil {
		logx.Error().Err(err).Str("node", info.Name).Dur("elapsed", elapsed).Msg("Node failed")
		return
	}
	logx.Debug().Str("node", info.Name).Dur("elapsed", elapsed).Msg("Node finished")
}
