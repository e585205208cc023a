package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novagestion/asesoria-server/internal/agent/model"
)

func TestNewChatModelsOpenAI(t *testing.T) {
	spec := model.ChatModelSpec{
		Provider:       model.ProviderOpenAI,
		Model:          "gpt-4o-mini",
		BaseURL:        "http://litellm.local/v1",
		APIKey:         "sk-test",
		MaxTokens:      256,
		ThinkingBudget: -1,
	}
	cms, err := NewChatModels(context.Background(), ChatModelConfig{Router: spec, Writer: spec})
	require.NoError(t, err)
	assert.NotNil(t, cms.Router)
	assert.NotNil(t, cms.Writer)
	assert.Nil(t, cms.Gemini)
	assert.Equal(t, "gpt-4o-mini", cms.RouterModelName)
}

func TestNewChatModelsErrors(t *testing.T) {
	ctx := context.Background()
	openaiSpec := model.ChatModelSpec{Provider: model.ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k"}

	_, err := NewChatModels(ctx, ChatModelConfig{
		Router: model.ChatModelSpec{Provider: model.ProviderGemini, Model: "gemini-2.5-flash-lite"},
		Writer: openaiSpec,
	})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	_, err = NewChatModels(ctx, ChatModelConfig{
		Router: openaiSpec,
		Writer: model.ChatModelSpec{Provider: "bedrock", Model: "x"},
	})
	assert.ErrorContains(t, err, "unknown chat model provider")

	_, err = NewChatModels(ctx, ChatModelConfig{Router: model.ChatModelSpec{Provider: model.ProviderOpenAI}, Writer: openaiSpec})
	assert.ErrorContains(t, err, "model name is empty")
}
