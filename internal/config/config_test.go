package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Verbose)

	assert.InDelta(t, 70.0, cfg.Pipeline.QualityThreshold, 1e-9)
	assert.True(t, cfg.Pipeline.QualityGate)
	assert.Equal(t, 4, cfg.Pipeline.MaxWorkers)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.EngineTimeout())

	assert.True(t, cfg.Pipeline.Engines.Tesseract.Enabled)
	assert.Equal(t, []string{"eng"}, cfg.Pipeline.Engines.Tesseract.Languages)
	assert.False(t, cfg.Pipeline.Engines.Handwriting.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.Engines.Handwriting.Timeout())

	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"negative threshold", func(c *Config) { c.Pipeline.QualityThreshold = -1 }, "quality_threshold"},
		{"threshold above 100", func(c *Config) { c.Pipeline.QualityThreshold = 150 }, "quality_threshold"},
		{"zero workers", func(c *Config) { c.Pipeline.MaxWorkers = 0 }, "max_workers"},
		{"zero timeout", func(c *Config) { c.Pipeline.EngineTimeoutSec = 0 }, "engine_timeout_sec"},
		{"no engines", func(c *Config) {
			c.Pipeline.Engines.Tesseract.Enabled = false
			c.Pipeline.Engines.Handwriting.Enabled = false
		}, "no engines"},
		{"handwriting without endpoint", func(c *Config) {
			c.Pipeline.Engines.Handwriting.Enabled = true
			c.Pipeline.Engines.Handwriting.Endpoint = ""
		}, "endpoint"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }, "max_upload_mb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestValidateAcceptsHandwritingWithEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.Engines.Handwriting.Enabled = true
	cfg.Pipeline.Engines.Handwriting.Endpoint = "http://localhost:9090/detect"
	assert.NoError(t, cfg.Validate())
}
