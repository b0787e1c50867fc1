package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"micromeda/internal/assign"
)

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		path := writeTempConfig(t, `
catalog: genProperties.txt
store:
  dsn: sqlite://results.micro
workers: 4
assignment:
  threshold: exceeds
  category: unthresholded
  honor_sufficient: true
logging:
  level: debug
  format: json
metrics:
  textfile: /var/lib/node_exporter/micromeda.prom
`)
		cfg, err := LoadProjectConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "genProperties.txt", cfg.Catalog)
		assert.Equal(t, "sqlite://results.micro", cfg.Store.DSN)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, "json", cfg.Logging.Format)

		policy, err := cfg.Policy()
		require.NoError(t, err)
		assert.Equal(t, assign.Policy{
			Threshold:       assign.ThresholdExceeds,
			Category:        assign.CategoryUnthresholded,
			HonorSufficient: true,
		}, policy)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := LoadProjectConfig(writeTempConfig(t, "catalog: props.txt\n"))
		require.NoError(t, err)
		assert.Equal(t, "props.txt", cfg.Catalog)
		assert.Equal(t, Default().Workers, cfg.Workers)
		assert.Equal(t, "info", cfg.Logging.Level)

		policy, err := cfg.Policy()
		require.NoError(t, err)
		assert.Equal(t, assign.DefaultPolicy(), policy)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadProjectConfig(writeTempConfig(t, "catalog: [\n"))
		assert.Error(t, err)
	})
}

func TestLoadProjectConfigRejects(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		field    string
	}{
		{name: "zero workers", contents: "workers: 0\n", field: "workers"},
		{name: "unknown threshold", contents: "assignment:\n  threshold: most\n", field: "assignment.threshold"},
		{name: "unknown category", contents: "assignment:\n  category: loose\n", field: "assignment.category"},
		{name: "unknown log level", contents: "logging:\n  level: trace\n", field: "logging.level"},
		{name: "unknown log format", contents: "logging:\n  format: logfmt\n", field: "logging.format"},
		{name: "unsupported store", contents: "store:\n  dsn: mysql://localhost/db\n", field: "store.dsn"},
		{name: "textfile suffix", contents: "metrics:\n  textfile: out.txt\n", field: "metrics.textfile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProjectConfig(writeTempConfig(t, tt.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "micromeda.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestWriteProjectConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "micromeda.yaml")
	cfg := Default()
	cfg.Catalog = "genProperties.txt"
	cfg.Store.DSN = "postgres://localhost/micromeda"
	cfg.Assignment.HonorSufficient = true

	require.NoError(t, WriteProjectConfig(path, cfg))
	loaded, err := LoadProjectConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	cfg.Workers = -1
	assert.Error(t, WriteProjectConfig(path, cfg))
}
