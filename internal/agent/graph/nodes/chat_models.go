package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"google.golang.org/genai"

	"github.com/novagestion/asesoria-server/internal/agent/model"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	// GeminiAPIKey is used by gemini models without their own key and by the
	// shared genai client handed to the knowledge retriever.
	GeminiAPIKey  string
	GeminiBaseURL string
	Router        model.ChatModelSpec
	Writer        model.ChatModelSpec
}

// ChatModels holds the router and writer chat models
type ChatModels struct {
	Router          model.Generator
	Writer          model.Generator
	RouterModelName string
	WriterModelName string

	// Gemini is nil when no Gemini API key is configured.
	Gemini *genai.Client
}

// NewChatModels creates the router and writer chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	cms := &ChatModels{
		RouterModelName: config.Router.Model,
		WriterModelName: config.Writer.Model,
	}

	if config.GeminiAPIKey != "" {
		client, err := newGeminiClient(ctx, config.GeminiAPIKey, config.GeminiBaseURL)
		if err != nil {
			return nil, err
		}
		cms.Gemini = client
	}

	router, err := cms.newChatModel(ctx, config, config.Router)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating router model")
		return nil, fmt.Errorf("error creating router model: %w", err)
	}
	writer, err := cms.newChatModel(ctx, config, config.Writer)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating writer model")
		return nil, fmt.Errorf("error creating writer model: %w", err)
	}
	cms.Router = router
	cms.Writer = writer

	logx.Debug().
		Str("router_provider", config.Router.Provider).
		Str("router_model", config.Router.Model).
		Str("writer_provider", config.Writer.Provider).
		Str("writer_model", config.Writer.Model).
		Msg("Chat models ready")
	return cms, nil
}

func newGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

func (cms *ChatModels) newChatModel(ctx context.Context, config ChatModelConfig, spec model.ChatModelSpec) (model.Generator, error) {
	if spec.Model == "" {
		return nil, fmt.Errorf("model name is empty")
	}
	temperature := spec.Temperature
	var maxTokens *int
	if spec.MaxTokens > 0 {
		n := spec.MaxTokens
		maxTokens = &n
	}

	switch spec.Provider {
	case model.ProviderGemini, "":
		client := cms.Gemini
		if spec.APIKey != "" && spec.APIKey != config.GeminiAPIKey {
			c, err := newGeminiClient(ctx, spec.APIKey, firstNonEmpty(spec.BaseURL, config.GeminiBaseURL))
			if err != nil {
				return nil, err
			}
			client = c
		}
		if client == nil {
			return nil, fmt.Errorf("gemini model %q needs GEMINI_API_KEY", spec.Model)
		}
		cfg := &gemini.Config{
			Client:      client,
			Model:       spec.Model,
			Temperature: &temperature,
			MaxTokens:   maxTokens,
		}
		if spec.ThinkingBudget >= 0 {
			cfg.ThinkingConfig = &genai.ThinkingConfig{
				IncludeThoughts: false,
				ThinkingBudget:  genai.Ptr(int32(spec.ThinkingBudget)),
			}
		}
		return gemini.NewChatModel(ctx, cfg)

	case model.ProviderOpenAI:
		// BaseURL points at a LiteLLM proxy or any OpenAI compatible gateway.
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     spec.BaseURL,
			APIKey:      spec.APIKey,
			Model:       spec.Model,
			Temperature: &temperature,
			MaxTokens:   maxTokens,
		})

	default:
		return nil, fmt.Errorf("unknown chat model provider %q", spec.Provider)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
