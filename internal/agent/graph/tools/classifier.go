package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/novagestion/asesoria-server/internal/agent/graph/parsers"
	"github.com/novagestion/asesoria-server/internal/agent/graph/prompts"
	"github.com/novagestion/asesoria-server/internal/agent/model"
)

// ChatClassifier implements model.Classifier on top of a chat model by asking
// for a single-field JSON object and validating it against the schema.
type ChatClassifier struct {
	model model.Generator
}

func NewChatClassifier(g model.Generator) *ChatClassifier {
	return &ChatClassifier{model: g}
}

func (c *ChatClassifier) Classify(ctx context.Context, instruction string, s model.LabelSchema, messages []*schema.Message) (string, error) {
	if c == nil || c.model == nil {
		return "", fmt.Errorf("classifier model is nil")
	}
	in, err := prompts.RenderClassifier(ctx, instruction, s, messages)
	if err != nil {
		return "", err
	}
	out, err := c.model.Generate(ctx, in)
	if err != nil {
		return "", fmt.Errorf("classify %s: %w", s.Name, err)
	}
	if out == nil {
		return "", fmt.Errorf("classify %s: nil response", s.Name)
	}
	return parsers.ParseLabel(out.Content, s)
}

var _ model.Classifier = (*ChatClassifier)(nil)
