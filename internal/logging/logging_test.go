package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"micromeda/internal/config"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	logger.Info("sample assigned", zap.String("sample", "genome_a"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sample assigned", entry["msg"])
	assert.Equal(t, "genome_a", entry["sample"])
	assert.Equal(t, "micromeda", entry["logger"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "console"}, &buf)
	logger.Info("hidden")
	logger.Warn("skipped row")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "skipped row")
	assert.Contains(t, buf.String(), "WARN")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "loud"}, &buf)
	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
