package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"giftgroup-onboarding/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Level: "warn", Format: "json"})

	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "test", line["component"])
	assert.Contains(t, line, "time")
}

func TestNew_ConsoleFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Level: "nonsense", Format: "console"})

	log.Debug().Msg("hidden")
	log.Info().Msg("hello")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "hello")
}
