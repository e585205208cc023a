package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/novagestion/asesoria-server/internal/agent/graph/parsers"
	"github.com/novagestion/asesoria-server/internal/agent/graph/prompts"
	"github.com/novagestion/asesoria-server/internal/agent/graph/tools"
	"github.com/novagestion/asesoria-server/internal/agent/model"
	errx "github.com/novagestion/asesoria-server/internal/core/error"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// ================ Input ================

// NewInputPreHandler creates the pre-handler for the Input node
func NewInputPreHandler() func(context.Context, model.ChatRequest, *model.AppState) (model.ChatRequest, error) {
	return func(ctx context.Context, in model.ChatRequest, s *model.AppState) (model.ChatRequest, error) {
		if s.RequestID == "" {
			s.RequestID = in.RequestID
		}
		return in.Normalized(), nil
	}
}

// NewInputNode seeds the conversation: system preamble, optional prior
// context and the current user text, one message each.
func NewInputNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ChatRequest) ([]*schema.Message, error) {
		messages := make([]*schema.Message, 0, 3)
		if preamble := prompts.SystemPreamble(); preamble != "" {
			messages = append(messages, schema.SystemMessage(preamble))
		}
		if in.Context != "" {
			messages = append(messages, schema.UserMessage(prompts.ContextPrefix+in.Context))
		}
		messages = append(messages, schema.UserMessage(in.Message))
		return messages, nil
	})
}

// NewInputPostHandler records the seeded messages in state
func NewInputPostHandler() func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, s *model.AppState) ([]*schema.Message, error) {
		s.Append(out...)
		logx.Debug().
			Str("request_id", s.RequestID).
			Str("node", NodeInput).
			Int("messages", len(out)).
			Msg("Conversation seeded")
		return out, nil
	}
}

// ================ Routers ================

// classify never fails: any classifier error, panic or out-of-enumeration
// answer yields a degraded classification carrying fallback.
func classify[L model.Label](
	ctx context.Context,
	c model.Classifier,
	instruction string,
	s model.LabelSchema,
	messages []*schema.Message,
	fallback L,
) (result model.Classification[L]) {
	if c == nil {
		return model.Fallback(fallback, "", errors.New("classifier is nil"))
	}
	defer func() {
		if r := recover(); r != nil {
			result = model.Fallback(fallback, "", fmt.Errorf("classifier panic: %v", r))
		}
	}()

	raw, err := c.Classify(ctx, instruction, s, messages)
	if err != nil {
		return model.Fallback(fallback, raw, err)
	}
	label, ok := model.ParseLabel[L](raw)
	if !ok {
		return model.Fallback(fallback, raw, fmt.Errorf("%w: %q", parsers.ErrLabelOutOfSchema, raw))
	}
	return model.Classified(label, raw)
}

// NewPrimaryRouterNode classifies the conversation into a primary category
func NewPrimaryRouterNode(c model.Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, messages []*schema.Message) (model.Classification[model.PrimaryCategory], error) {
		return classify(ctx, c, prompts.PrimaryRouterInstruction(), model.PrimarySchema, messages, model.PrimaryOther), nil
	})
}

// NewPrimaryRouterPostHandler stores the primary category in state
func NewPrimaryRouterPostHandler() func(context.Context, model.Classification[model.PrimaryCategory], *model.AppState) (model.Classification[model.PrimaryCategory], error) {
	return func(ctx context.Context, out model.Classification[model.PrimaryCategory], s *model.AppState) (model.Classification[model.PrimaryCategory], error) {
		label := out.Label
		s.PrimaryCategory = &label
		logClassification(s, NodePrimaryRouter, string(label), out.Raw, out.Err)
		return out, nil
	}
}

// NewInfoRouterNode classifies a general information question into a sub-category
func NewInfoRouterNode(c model.Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Classification[model.PrimaryCategory]) (model.Classification[model.SubCategory], error) {
		var messages []*schema.Message
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			messages = s.Snapshot()
			return nil
		})
		if err != nil {
			return model.Classification[model.SubCategory]{}, fmt.Errorf("failed to access state: %w", err)
		}
		return classify(ctx, c, prompts.InfoRouterInstruction(), model.SubSchema, messages, model.SubUnknown), nil
	})
}

// NewInfoRouterPostHandler stores the sub-category in state
func NewInfoRouterPostHandler() func(context.Context, model.Classification[model.SubCategory], *model.AppState) (model.Classification[model.SubCategory], error) {
	return func(ctx context.Context, out model.Classification[model.SubCategory], s *model.AppState) (model.Classification[model.SubCategory], error) {
		label := out.Label
		s.SubCategory = &label
		logClassification(s, NodeInfoRouter, string(label), out.Raw, out.Err)
		return out, nil
	}
}

func logClassification(s *model.AppState, node, label, raw string, err error) {
	if err != nil {
		s.Fallbacks = append(s.Fallbacks, node)
		logx.Warn().
			Err(err).
			Str("request_id", s.RequestID).
			Str("node", node).
			Str("label", label).
			Str("raw", raw).
			Msg("Classifier failed, using default label")
		return
	}
	logx.Debug().
		Str("request_id", s.RequestID).
		Str("node", node).
		Str("label", label).
		Msg("Message classified")
}

// ================ Handlers ================

// NewCalendarNode fetches the taxpayer calendar. Failures are reported inside
// the message so the formatter can still answer.
func NewCalendarNode(calendar tool.InvokableTool) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Classification[model.SubCategory]) (*schema.Message, error) {
		res, err := runDataTool(ctx, calendar, nil)
		if err != nil {
			res = calendarFailureText(err)
			logx.Warn().Err(err).Str("node", NodeCalendar).Str("embedded", res).Msg("Calendar lookup failed")
		}
		return schema.AssistantMessage(CalendarDataPrefix+res, nil), nil
	})
}

// NewOfficeInfoNode answers office questions from the knowledge base using
// the latest user message as query.
func NewOfficeInfoNode(officeInfo tool.InvokableTool) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Classification[model.SubCategory]) (*schema.Message, error) {
		var query string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			query = s.LastUserContent()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		res, err := runDataTool(ctx, officeInfo, tools.OfficeInfoInput{Query: query})
		if err != nil {
			res = officeInfoFailureText(err)
			logx.Warn().Err(err).Str("node", NodeOfficeInfo).Str("embedded", res).Msg("Office info lookup failed")
		}
		return schema.AssistantMessage(OfficeInfoDataPrefix+res, nil), nil
	})
}

func runDataTool(ctx context.Context, t tool.InvokableTool, args any) (res string, err error) {
	if t == nil {
		return "", errx.ErrNotConfigured
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return tools.Run(ctx, t, args)
}

// NewFreeformChatNode lets the writer model answer greetings and off-topic
// messages directly from the conversation.
func NewFreeformChatNode(writer model.Generator) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Classification[model.PrimaryCategory]) (*schema.Message, error) {
		if writer == nil {
			return nil, fmt.Errorf("freeform chat: writer model: %w", errx.ErrNotConfigured)
		}
		var messages []*schema.Message
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			messages = s.Snapshot()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		out, err := writer.Generate(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("freeform chat generate: %w", err)
		}
		if out == nil {
			return nil, fmt.Errorf("freeform chat generate: nil response")
		}
		return out, nil
	})
}

// NewHandlerPostHandler appends the handler message and records which
// handler produced it.
func NewHandlerPostHandler(node string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, s *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("%s produced no message", node)
		}
		s.Append(out)
		s.Handler = node
		s.HandlerRuns++
		logx.Debug().
			Str("request_id", s.RequestID).
			Str("node", node).
			Int("content_len", len(out.Content)).
			Msg("Handler produced message")
		return out, nil
	}
}

// ================ Formatter ================

// NewFormatterNode restyles the handler output for the chat surface. It is
// the only node reaching END, so it also stamps the route on the reply.
func NewFormatterNode(writer model.Generator) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ *schema.Message) (*schema.Message, error) {
		if writer == nil {
			return nil, fmt.Errorf("formatter: writer model: %w", errx.ErrNotConfigured)
		}
		var (
			last  *schema.Message
			route model.Route
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			if s.HandlerRuns != 1 || s.Handler == "" {
				return fmt.Errorf("%w: %d handler runs before formatter", errx.ErrHandlerInvariant, s.HandlerRuns)
			}
			last = s.LastMessage()
			route = s.Route()
			return nil
		})
		if err != nil {
			return nil, err
		}
		if last == nil {
			return nil, fmt.Errorf("%w: no message to format", errx.ErrHandlerInvariant)
		}

		in, err := prompts.RenderFormatter(ctx, last.Content)
		if err != nil {
			return nil, err
		}
		res, err := writer.Generate(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("formatter generate: %w", err)
		}
		if res == nil {
			return nil, fmt.Errorf("formatter generate: nil response")
		}

		out := schema.AssistantMessage(strings.TrimSpace(res.Content), nil)
		out.ResponseMeta = res.ResponseMeta
		ensureExtra(out)[ExtraRouteKey] = route
		return out, nil
	})
}

// NewFormatterPostHandler appends the final reply to state
func NewFormatterPostHandler() func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, s *model.AppState) (*schema.Message, error) {
		s.Append(out)
		logx.Debug().
			Str("request_id", s.RequestID).
			Str("node", NodeFormatter).
			Str("handler", s.Handler).
			Msg("Reply formatted")
		return out, nil
	}
}
