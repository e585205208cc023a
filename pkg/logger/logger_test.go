package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/novagestion/asesoria-server/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Output: &buf})
	t.Cleanup(func() { Init() })

	Debug().Msg("hidden")
	Info().Str("request_id", "r-1").Msg("visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "r-1", entry["request_id"])
}

func TestInitLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Level: "warn", Output: &buf})
	t.Cleanup(func() { Init() })

	Info().Msg("dropped")
	assert.Empty(t, buf.String())

	Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}
