package nodes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novagestion/asesoria-server/internal/agent/graph/parsers"
	"github.com/novagestion/asesoria-server/internal/agent/model"
	errx "github.com/novagestion/asesoria-server/internal/core/error"
)

type classifierFunc func(ctx context.Context, instruction string, s model.LabelSchema, messages []*schema.Message) (string, error)

func (f classifierFunc) Classify(ctx context.Context, instruction string, s model.LabelSchema, messages []*schema.Message) (string, error) {
	return f(ctx, instruction, s, messages)
}

type generatorFunc func(ctx context.Context, input []*schema.Message) (*schema.Message, error)

func (f generatorFunc) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	return f(ctx, input)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	answer := func(label string, err error) model.Classifier {
		return classifierFunc(func(context.Context, string, model.LabelSchema, []*schema.Message) (string, error) {
			return label, err
		})
	}

	got := classify(ctx, answer("informacion_general", nil), "i", model.PrimarySchema, nil, model.PrimaryOther)
	assert.False(t, got.Degraded())
	assert.Equal(t, model.PrimaryGeneralInfo, got.Label)

	got = classify(ctx, answer(" OTRO ", nil), "i", model.PrimarySchema, nil, model.PrimaryOther)
	assert.False(t, got.Degraded())
	assert.Equal(t, model.PrimaryOther, got.Label)

	got = classify(ctx, answer("", errors.New("boom")), "i", model.PrimarySchema, nil, model.PrimaryOther)
	assert.True(t, got.Degraded())
	assert.Equal(t, model.PrimaryOther, got.Label)

	sub := classify(ctx, answer("calendar", nil), "i", model.SubSchema, nil, model.SubUnknown)
	assert.True(t, sub.Degraded())
	assert.ErrorIs(t, sub.Err, parsers.ErrLabelOutOfSchema)
	assert.Equal(t, model.SubUnknown, sub.Label)

	sub = classify(ctx, nil, "i", model.SubSchema, nil, model.SubUnknown)
	assert.True(t, sub.Degraded())

	panicky := classifierFunc(func(context.Context, string, model.LabelSchema, []*schema.Message) (string, error) {
		panic("nil map")
	})
	sub = classify(ctx, panicky, "i", model.SubSchema, nil, model.SubUnknown)
	assert.True(t, sub.Degraded())
	assert.Equal(t, model.SubUnknown, sub.Label)
}

func TestInputNode(t *testing.T) {
	g := compose.NewGraph[model.ChatRequest, []*schema.Message](
		compose.WithGenLocalState(func(ctx context.Context) *model.AppState { return &model.AppState{} }),
	)
	require.NoError(t, g.AddLambdaNode(NodeInput, NewInputNode(),
		compose.WithStatePreHandler(NewInputPreHandler()),
		compose.WithStatePostHandler(NewInputPostHandler()),
	))
	require.NoError(t, g.AddEdge(compose.START, NodeInput))
	require.NoError(t, g.AddEdge(NodeInput, compose.END))
	r, err := g.Compile(context.Background())
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), model.ChatRequest{Message: "  Hola  "})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, schema.System, out[0].Role)
	assert.Equal(t, "  Hola  ", out[1].Content)

	out, err = r.Invoke(context.Background(), model.ChatRequest{Message: "¿Horario?", Context: "previo"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "CONTEXTO PREVIO:\nprevio", out[1].Content)
	assert.Equal(t, schema.User, out[1].Role)
}

func TestFormatterRequiresExactlyOneHandler(t *testing.T) {
	writer := generatorFunc(func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("formatted", nil), nil
	})

	build := func(handlerRuns int) compose.Runnable[*schema.Message, *schema.Message] {
		g := compose.NewGraph[*schema.Message, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				p := model.PrimaryOther
				return &model.AppState{
					Messages:        []*schema.Message{schema.UserMessage("Hola"), schema.AssistantMessage("¡Hola!", nil)},
					PrimaryCategory: &p,
					Handler:         NodeFreeformChat,
					HandlerRuns:     handlerRuns,
				}
			}),
		)
		require.NoError(t, g.AddLambdaNode(NodeFormatter, NewFormatterNode(writer),
			compose.WithStatePostHandler(NewFormatterPostHandler()),
		))
		require.NoError(t, g.AddEdge(compose.START, NodeFormatter))
		require.NoError(t, g.AddEdge(NodeFormatter, compose.END))
		r, err := g.Compile(context.Background())
		require.NoError(t, err)
		return r
	}

	out, err := build(1).Invoke(context.Background(), schema.AssistantMessage("¡Hola!", nil))
	require.NoError(t, err)
	assert.Equal(t, "formatted", out.Content)
	route, ok := RouteFromMessage(out)
	require.True(t, ok)
	assert.Equal(t, NodeFreeformChat, route.Handler)
	assert.Equal(t, model.PrimaryOther, route.PrimaryCategory)

	_, err = build(2).Invoke(context.Background(), schema.AssistantMessage("¡Hola!", nil))
	assert.ErrorContains(t, err, "handler invariant violated")

	_, err = build(0).Invoke(context.Background(), schema.AssistantMessage("¡Hola!", nil))
	assert.ErrorContains(t, err, "handler invariant violated")
}

func TestHandlerPostHandler(t *testing.T) {
	s := &model.AppState{}
	post := NewHandlerPostHandler(NodeCalendar)

	msg := schema.AssistantMessage(CalendarDataPrefix+"x", nil)
	out, err := post(context.Background(), msg, s)
	require.NoError(t, err)
	assert.Same(t, msg, out)
	assert.Equal(t, NodeCalendar, s.Handler)
	assert.Equal(t, 1, s.HandlerRuns)
	assert.Same(t, msg, s.LastMessage())

	_, err = post(context.Background(), nil, s)
	assert.Error(t, err)
}

func TestRouteFromMessage(t *testing.T) {
	_, ok := RouteFromMessage(nil)
	assert.False(t, ok)
	_, ok = RouteFromMessage(schema.AssistantMessage("x", nil))
	assert.False(t, ok)

	msg := schema.AssistantMessage("x", nil)
	ensureExtra(msg)[ExtraRouteKey] = model.Route{Handler: NodeOfficeInfo}
	r, ok := RouteFromMessage(msg)
	require.True(t, ok)
	assert.Equal(t, NodeOfficeInfo, r.Handler)
}

func TestDataFailureTexts(t *testing.T) {
	status := errx.WrapUpstream("agenda", fmt.Errorf("%w %d", errx.ErrUpstreamStatus, 500))
	transport := errx.WrapUpstream("agenda", errors.New("dial tcp: connection refused"))
	missing := fmt.Errorf("file search: %w", errx.ErrNotConfigured)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"calendar status", calendarFailureText(status), CalendarUnavailable},
		{"calendar missing", calendarFailureText(missing), CalendarUnavailable},
		{"calendar transport", calendarFailureText(transport), "Excepción calendario: agenda: dial tcp: connection refused"},
		{"office status", officeInfoFailureText(status), OfficeInfoUnavailable},
		{"office missing", officeInfoFailureText(missing), OfficeInfoNotConfigured},
		{"office plain", officeInfoFailureText(errors.New("timeout")), "Error de conexión: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
