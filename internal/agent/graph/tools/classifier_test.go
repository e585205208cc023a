package tools

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novagestion/asesoria-server/internal/agent/graph/parsers"
	"github.com/novagestion/asesoria-server/internal/agent/model"
)

type stubGenerator struct {
	reply *schema.Message
	err   error
	got   []*schema.Message
}

func (s *stubGenerator) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	s.got = input
	return s.reply, s.err
}

func TestChatClassifierClassify(t *testing.T) {
	gen := &stubGenerator{reply: schema.AssistantMessage(`{"categoria": "informacion_general"}`, nil)}
	c := NewChatClassifier(gen)

	history := []*schema.Message{schema.UserMessage("¿Cuándo vence el modelo 303?")}
	label, err := c.Classify(context.Background(), "Clasifica.", model.PrimarySchema, history)
	require.NoError(t, err)
	assert.Equal(t, "informacion_general", label)

	require.Len(t, gen.got, 2)
	assert.Equal(t, schema.System, gen.got[0].Role)
	assert.Contains(t, gen.got[0].Content, "Clasifica.")
	assert.Equal(t, history[0], gen.got[1])
}

func TestChatClassifierErrors(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := NewChatClassifier(&stubGenerator{err: boom}).Classify(context.Background(), "x", model.SubSchema, nil)
	assert.ErrorIs(t, err, boom)

	_, err = NewChatClassifier(&stubGenerator{reply: schema.AssistantMessage("quizá", nil)}).Classify(context.Background(), "x", model.SubSchema, nil)
	assert.ErrorIs(t, err, parsers.ErrLabelOutOfSchema)

	_, err = NewChatClassifier(&stubGenerator{}).Classify(context.Background(), "x", model.SubSchema, nil)
	assert.Error(t, err)

	_, err = NewChatClassifier(nil).Classify(context.Background(), "x", model.SubSchema, nil)
	assert.Error(t, err)
}
