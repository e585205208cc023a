package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/novagestion/asesoria-server/internal/agent/graph/nodes"
	"github.com/novagestion/asesoria-server/internal/agent/model"
	"github.com/novagestion/asesoria-server/internal/core"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
	pkgredis "github.com/novagestion/asesoria-server/pkg/redis"
)

// AppConfig defines all configurable parameters of the server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// HTTP
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Router    model.RouterModelConfig
	Writer    model.WriterModelConfig
	Knowledge model.KnowledgeConfig
	Calendar  model.CalendarConfig
}

// LoadConfig reads .env when present and binds the environment.
func LoadConfig(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// InitLogger configures logx for the loaded environment.
func (c *AppConfig) InitLogger() {
	logx.Init(logx.LoggerOpts{
		Environment: c.Environment,
		Level:       c.LogLevel,
	})
}

// ChatModels maps the model configs onto the chat model factory input.
func (c *AppConfig) ChatModels() nodes.ChatModelConfig {
	return nodes.ChatModelConfig{
		GeminiAPIKey:  c.GeminiAPIKey,
		GeminiBaseURL: c.GeminiBaseURL,
		Router:        c.Router.Spec(),
		Writer:        c.Writer.Spec(),
	}
}
