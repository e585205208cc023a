package model

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Classifier maps a conversation onto one label of schema. Implementations may
// return any string; callers coerce it to their closed enumeration.
type Classifier interface {
	Classify(ctx context.Context, instruction string, schema LabelSchema, messages []*schema.Message) (string, error)
}

// Generator produces free text from a message sequence. Every eino chat model satisfies it.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// KnowledgeRetriever answers a free text query from the office knowledge base.
type KnowledgeRetriever interface {
	Search(ctx context.Context, query string) (string, error)
}

// CalendarSource returns the formatted list of currently relevant taxpayer calendar events.
type CalendarSource interface {
	Events(ctx context.Context) (string, error)
}
