package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novagestion/asesoria-server/internal/agent/model"
	"github.com/novagestion/asesoria-server/internal/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, core.Development, cfg.Environment)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.Redis.Enabled())

	assert.Equal(t, model.ProviderGemini, cfg.Router.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Router.Model)
	assert.Equal(t, float32(0), cfg.Router.Temperature)
	assert.Equal(t, float32(0.2), cfg.Writer.Temperature)
	assert.Equal(t, "10s", cfg.Calendar.Timeout)
	assert.Equal(t, "30s", cfg.Knowledge.Timeout)
	assert.Equal(t, "Europe/Madrid", cfg.Calendar.Timezone)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	for _, k := range []string{"ENVIRONMENT", "ROUTER_PROVIDER", "ROUTER_MODEL", "ROUTER_BASE_URL", "REDIS_URL", "CALENDAR_CACHE_TTL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"ENVIRONMENT=Production\n"+
			"ROUTER_PROVIDER=openai\n"+
			"ROUTER_MODEL=gpt-4o-mini\n"+
			"ROUTER_BASE_URL=http://litellm:4000\n"+
			"REDIS_URL=redis://localhost:6379/0\n"+
			"CALENDAR_CACHE_TTL=15m\n",
	), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"ENVIRONMENT", "ROUTER_PROVIDER", "ROUTER_MODEL", "ROUTER_BASE_URL", "REDIS_URL", "CALENDAR_CACHE_TTL"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, core.Production, cfg.Environment)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "15m", cfg.Calendar.CacheTTL)

	spec := cfg.ChatModels().Router
	assert.Equal(t, model.ProviderOpenAI, spec.Provider)
	assert.Equal(t, "gpt-4o-mini", spec.Model)
	assert.Equal(t, "http://litellm:4000", spec.BaseURL)
}
