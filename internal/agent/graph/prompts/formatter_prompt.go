package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/formatter.txt
var formatterPrompt string

// RenderFormatter renders the chat-surface style instruction around text.
func RenderFormatter(ctx context.Context, text string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.UserMessage(strings.TrimSpace(formatterPrompt)),
	)
	msgs, err := tpl.Format(ctx, map[string]any{"texto": text})
	if err != nil {
		return nil, fmt.Errorf("formatter prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("formatter prompt render: empty result")
	}
	return msgs, nil
}
