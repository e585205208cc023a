package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/novagestion/asesoria-server/internal/agent/model"
)

//go:embed template/preamble.txt
var systemPreamble string

//go:embed template/primary_router.txt
var primaryRouterPrompt string

//go:embed template/info_router.txt
var infoRouterPrompt string

// ContextPrefix precedes prior conversation text supplied by the caller.
const ContextPrefix = "CONTEXTO PREVIO:\n"

// SystemPreamble is the first message of every conversation.
func SystemPreamble() string {
	return strings.TrimSpace(systemPreamble)
}

// PrimaryRouterInstruction describes the Level-1 categories.
func PrimaryRouterInstruction() string {
	return strings.TrimSpace(primaryRouterPrompt)
}

// InfoRouterInstruction describes the Level-2 categories.
func InfoRouterInstruction() string {
	return strings.TrimSpace(infoRouterPrompt)
}

// SchemaHint tells the model how to shape its structured answer.
func SchemaHint(s model.LabelSchema) string {
	quoted := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf(
		"Responde únicamente con un objeto JSON de la forma {%q: <valor>} donde <valor> es uno de: %s. No añadas texto adicional.",
		s.Field, strings.Join(quoted, ", "),
	)
}

// RenderClassifier builds the classifier input: the instruction plus schema
// hint as a system message followed by the conversation. The instruction goes
// through a messages placeholder so JSON braces are never parsed as template
// variables, while still emitting prompt callbacks.
func RenderClassifier(ctx context.Context, instruction string, s model.LabelSchema, history []*schema.Message) ([]*schema.Message, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("classifier instruction is empty")
	}
	system := schema.SystemMessage(instruction + "\n\n" + SchemaHint(s))

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("instruction", false),
		schema.MessagesPlaceholder("history", true),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"instruction": []*schema.Message{system},
		"history":     history,
	})
	if err != nil {
		return nil, fmt.Errorf("classifier prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("classifier prompt render: empty result")
	}
	return msgs, nil
}
