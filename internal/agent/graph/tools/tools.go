package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/novagestion/asesoria-server/internal/agent/model"
	errx "github.com/novagestion/asesoria-server/internal/core/error"
)

const (
	ToolCalendar   = "consultar_calendario_contribuyentes"
	ToolOfficeInfo = "consultar_informacion_despacho"
)

// OfficeInfoInput is the argument object of the office info tool.
type OfficeInfoInput struct {
	Query string `json:"query"`
}

// calendarTool exposes a CalendarSource as an eino tool with no parameters.
type calendarTool struct {
	source model.CalendarSource
}

func NewCalendarTool(src model.CalendarSource) tool.InvokableTool {
	return &calendarTool{source: src}
}

func (t *calendarTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolCalendar,
		Desc: "Consultar calendario fiscal. Devuelve la lista de eventos vigentes del mes en curso.",
	}, nil
}

func (t *calendarTool) InvokableRun(ctx context.Context, _ string, _ ...tool.Option) (string, error) {
	if t.source == nil {
		return "", fmt.Errorf("%s: calendar source: %w", ToolCalendar, errx.ErrNotConfigured)
	}
	return t.source.Events(ctx)
}

// officeInfoTool exposes a KnowledgeRetriever as an eino tool taking a query.
type officeInfoTool struct {
	retriever model.KnowledgeRetriever
}

func NewOfficeInfoTool(r model.KnowledgeRetriever) tool.InvokableTool {
	return &officeInfoTool{retriever: r}
}

func (t *officeInfoTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolOfficeInfo,
		Desc: "Buscar información corporativa: horarios, ubicación, servicios, empleados.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Consulta literal del cliente.",
				Required: true,
			},
		}),
	}, nil
}

func (t *officeInfoTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	if t.retriever == nil {
		return "", fmt.Errorf("%s: retriever: %w", ToolOfficeInfo, errx.ErrNotConfigured)
	}
	var in OfficeInfoInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return "", fmt.Errorf("%s: invalid arguments: %w", ToolOfficeInfo, err)
	}
	return t.retriever.Search(ctx, in.Query)
}

// Run invokes t with args marshalled to JSON and reports the call to the
// tool callbacks registered on ctx.
func Run(ctx context.Context, t tool.InvokableTool, args any) (string, error) {
	info, err := t.Info(ctx)
	if err != nil {
		return "", err
	}
	argsJSON := "{}"
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("%s: marshal arguments: %w", info.Name, err)
		}
		argsJSON = string(b)
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{Name: info.Name, Component: components.ComponentOfTool})
	ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: argsJSON})
	out, err := t.InvokableRun(ctx, argsJSON)
	if err != nil {
		callbacks.OnError(ctx, err)
		return "", err
	}
	callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: out})
	return out, nil
}
