package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Pipeline.QualityThreshold, cfg.Pipeline.QualityThreshold)
	assert.True(t, cfg.Pipeline.Engines.Tesseract.Enabled)
}

func TestLoadWithFile(t *testing.T) {
	doc := map[string]any{
		"log_level": "debug",
		"pipeline": map[string]any{
			"quality_threshold": 55.0,
			"max_workers":       2,
			"engines": map[string]any{
				"handwriting": map[string]any{
					"enabled":  true,
					"endpoint": "http://hw.local/detect",
				},
			},
		},
		"server": map[string]any{"port": 9000},
	}
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "idscan.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 55.0, cfg.Pipeline.QualityThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Pipeline.MaxWorkers)
	assert.True(t, cfg.Pipeline.Engines.Handwriting.Enabled)
	assert.Equal(t, "http://hw.local/detect", cfg.Pipeline.Engines.Handwriting.Endpoint)
	assert.Equal(t, 9000, cfg.Server.Port)

	// Untouched keys keep defaults.
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 60, cfg.Pipeline.EngineTimeoutSec)
}

func TestLoadWithFileMissing(t *testing.T) {
	_, err := NewLoaderWith(viper.New()).LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	data, err := yaml.Marshal(map[string]any{"output": map[string]any{"format": "xml"}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "idscan.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = NewLoaderWith(viper.New()).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestEnvironmentOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IDSCAN_LOG_LEVEL", "warn")

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestWriteDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, WriteDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "pipeline")
	assert.Contains(t, doc, "server")
}
