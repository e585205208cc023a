package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/novagestion/asesoria-server/internal/agent/graph/nodes"
	"github.com/novagestion/asesoria-server/internal/agent/graph/observers"
	"github.com/novagestion/asesoria-server/internal/agent/graph/tools"
	"github.com/novagestion/asesoria-server/internal/agent/model"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// maxRunSteps bounds the acyclic flow; the longest path visits six nodes.
const maxRunSteps = 12

// Runner executes the compiled graph for one chat turn.
type Runner interface {
	Invoke(ctx context.Context, in model.ChatRequest) (model.ChatReply, error)
}

// GraphConfig holds the capabilities the graph nodes call.
type GraphConfig struct {
	Classifier model.Classifier
	Writer     model.Generator
	Calendar   model.CalendarSource
	Knowledge  model.KnowledgeRetriever
}

// GraphBuilder handles the construction of the routing graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.ChatRequest, *schema.Message]

	calendarTool   tool.InvokableTool
	officeInfoTool tool.InvokableTool
}

type graphRunner struct {
	runnable  compose.Runnable[model.ChatRequest, *schema.Message]
	callbacks []callbacks.Handler
	metrics   *observers.Metrics
}

// NewRunner wraps a compiled graph. metrics may be nil.
func NewRunner(runnable compose.Runnable[model.ChatRequest, *schema.Message], metrics *observers.Metrics) Runner {
	return &graphRunner{
		runnable:  runnable,
		callbacks: observers.NewAllCallbacks(metrics),
		metrics:   metrics,
	}
}

func (r *graphRunner) Invoke(ctx context.Context, in model.ChatRequest) (model.ChatReply, error) {
	req := in.Normalized()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	tally := &model.UsageTally{}
	ctx = model.WithUsageTally(ctx, tally)

	start := time.Now()
	out, err := r.runnable.Invoke(ctx, req, compose.WithCallbacks(r.callbacks...))
	elapsed := time.Since(start)
	calls, promptTokens, completionTokens, cost := tally.Totals()
	if err != nil {
		logx.Error().
			Err(err).
			Str("request_id", req.RequestID).
			Dur("elapsed", elapsed).
			Msg("Graph execution failed")
		return model.ChatReply{}, err
	}
	if out == nil {
		return model.ChatReply{}, fmt.Errorf("graph returned no message")
	}

	route, _ := nodes.RouteFromMessage(out)
	r.metrics.ObserveRoute(route, elapsed)

	ev := logx.Info().
		Str("request_id", req.RequestID).
		Str("primary_category", string(route.PrimaryCategory)).
		Str("handler", route.Handler).
		Strs("fallbacks", route.Fallbacks).
		Int("model_calls", calls).
		Int("prompt_tokens", promptTokens).
		Int("completion_tokens", completionTokens).
		Float64("total_cost_usd", cost).
		Dur("elapsed", elapsed)
	if route.SubCategory != nil {
		ev = ev.Str("sub_category", string(*route.SubCategory))
	}
	ev.Msg("Chat request answered")

	return model.ChatReply{Response: out.Content, Route: route}, nil
}

// BuildGraph constructs and returns the compiled routing graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.ChatRequest, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}
	if config.Writer == nil {
		return nil, fmt.Errorf("writer model is nil")
	}
	if config.Calendar == nil || config.Knowledge == nil {
		return nil, fmt.Errorf("data capabilities are not properly initialized")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.ChatRequest, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
		calendarTool:   tools.NewCalendarTool(config.Calendar),
		officeInfoTool: tools.NewOfficeInfoTool(config.Knowledge),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	add := func(key string, node *compose.Lambda, opts ...compose.GraphAddNodeOpt) error {
		opts = append(opts, compose.WithNodeName(key))
		if err := b.graph.AddLambdaNode(key, node, opts...); err != nil {
			logx.Error().Err(err).Str("node", key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", key, err)
		}
		return nil
	}

	steps := []func() error{
		func() error {
			return add(nodes.NodeInput, nodes.NewInputNode(),
				compose.WithStatePreHandler(nodes.NewInputPreHandler()),
				compose.WithStatePostHandler(nodes.NewInputPostHandler()),
			)
		},
		func() error {
			return add(nodes.NodePrimaryRouter, nodes.NewPrimaryRouterNode(b.config.Classifier),
				compose.WithStatePostHandler(nodes.NewPrimaryRouterPostHandler()),
			)
		},
		func() error {
			return add(nodes.NodeInfoRouter, nodes.NewInfoRouterNode(b.config.Classifier),
				compose.WithStatePostHandler(nodes.NewInfoRouterPostHandler()),
			)
		},
		func() error {
			return add(nodes.NodeCalendar, nodes.NewCalendarNode(b.calendarTool),
				compose.WithStatePostHandler(nodes.NewHandlerPostHandler(nodes.NodeCalendar)),
			)
		},
		func() error {
			return add(nodes.NodeOfficeInfo, nodes.NewOfficeInfoNode(b.officeInfoTool),
				compose.WithStatePostHandler(nodes.NewHandlerPostHandler(nodes.NodeOfficeInfo)),
			)
		},
		func() error {
			return add(nodes.NodeFreeformChat, nodes.NewFreeformChatNode(b.config.Writer),
				compose.WithStatePostHandler(nodes.NewHandlerPostHandler(nodes.NodeFreeformChat)),
			)
		},
		func() error {
			return add(nodes.NodeFormatter, nodes.NewFormatterNode(b.config.Writer),
				compose.WithStatePostHandler(nodes.NewFormatterPostHandler()),
			)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// addEdges creates the unconditional connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInput},
		{nodes.NodeInput, nodes.NodePrimaryRouter},
		{nodes.NodeCalendar, nodes.NodeFormatter},
		{nodes.NodeOfficeInfo, nodes.NodeFormatter},
		{nodes.NodeFreeformChat, nodes.NodeFormatter},
		{nodes.NodeFormatter, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates the two classification branches
func (b *GraphBuilder) addBranches() error {
	primaryBranch := compose.NewGraphBranch(nodes.NewPrimaryCondition(), nodes.PrimaryBranchTargets())
	if err := b.graph.AddBranch(nodes.NodePrimaryRouter, primaryBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding primary branch")
		return fmt.Errorf("error adding primary branch: %w", err)
	}

	subBranch := compose.NewGraphBranch(nodes.NewSubCondition(), nodes.SubBranchTargets())
	if err := b.graph.AddBranch(nodes.NodeInfoRouter, subBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding sub-category branch")
		return fmt.Errorf("error adding sub-category branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.ChatRequest, *schema.Message], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
