// Package config defines the application configuration and loads it from
// files, environment variables and flag bindings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/idscan/internal/quality"
)

const (
	infoLevel = "info"

	defaultEngineTimeoutSec = 60
	defaultMaxWorkers       = 4
	defaultMaxImageDim      = 2048
)

// Config is the complete configuration for the idscan application, shared by
// the extract, verify, quality and serve commands.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig contains extraction pipeline settings.
type PipelineConfig struct {
	QualityThreshold float64 `mapstructure:"quality_threshold" yaml:"quality_threshold" json:"quality_threshold"`
	QualityGate      bool    `mapstructure:"quality_gate" yaml:"quality_gate" json:"quality_gate"`
	MaxWorkers       int     `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`
	EngineTimeoutSec int     `mapstructure:"engine_timeout_sec" yaml:"engine_timeout_sec" json:"engine_timeout_sec"`
	MaxImageDim      int     `mapstructure:"max_image_dim" yaml:"max_image_dim" json:"max_image_dim"`

	Engines EnginesConfig `mapstructure:"engines" yaml:"engines" json:"engines"`
}

// EngineTimeout returns the per-engine timeout as a duration.
func (p PipelineConfig) EngineTimeout() time.Duration {
	return time.Duration(p.EngineTimeoutSec) * time.Second
}

// EnginesConfig selects and configures the OCR engines.
type EnginesConfig struct {
	Tesseract   TesseractConfig `mapstructure:"tesseract" yaml:"tesseract" json:"tesseract"`
	Handwriting RemoteConfig    `mapstructure:"handwriting" yaml:"handwriting" json:"handwriting"`
}

// TesseractConfig configures the local printed-text engine.
type TesseractConfig struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Languages []string `mapstructure:"languages" yaml:"languages" json:"languages"`
}

// RemoteConfig configures an HTTP-delegated engine.
type RemoteConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// Timeout returns the remote call timeout as a duration.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSec) * time.Second
}

// OutputConfig contains CLI output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// ServerConfig contains HTTP server settings for the serve command.
type ServerConfig struct {
	Host               string `mapstructure:"host" yaml:"host" json:"host"`
	Port               int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin         string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB        int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec         int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec" json:"shutdown_timeout_sec"`
	RateLimitPerMin    int    `mapstructure:"rate_limit_per_min" yaml:"rate_limit_per_min" json:"rate_limit_per_min"`
}

// DefaultConfig returns the configuration used when no file, environment
// variable or flag overrides a value.
func DefaultConfig() Config {
	return Config{
		LogLevel: infoLevel,
		Pipeline: PipelineConfig{
			QualityThreshold: quality.DefaultThreshold,
			QualityGate:      true,
			MaxWorkers:       defaultMaxWorkers,
			EngineTimeoutSec: defaultEngineTimeoutSec,
			MaxImageDim:      defaultMaxImageDim,
			Engines: EnginesConfig{
				Tesseract: TesseractConfig{
					Enabled:   true,
					Languages: []string{"eng"},
				},
				Handwriting: RemoteConfig{
					Enabled:    false,
					TimeoutSec: 30,
				},
			},
		},
		Output: OutputConfig{Format: "text"},
		Server: ServerConfig{
			Host:               "localhost",
			Port:               8080,
			CORSOrigin:         "*",
			MaxUploadMB:        50,
			TimeoutSec:         120,
			ShutdownTimeoutSec: 10,
			RateLimitPerMin:    60,
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (debug, info, warn, error)", c.LogLevel)
	}

	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 100 {
		return fmt.Errorf("pipeline.quality_threshold %v out of range [0,100]", c.Pipeline.QualityThreshold)
	}
	if c.Pipeline.MaxWorkers <= 0 {
		return fmt.Errorf("pipeline.max_workers must be positive, got %d", c.Pipeline.MaxWorkers)
	}
	if c.Pipeline.EngineTimeoutSec <= 0 {
		return fmt.Errorf("pipeline.engine_timeout_sec must be positive, got %d", c.Pipeline.EngineTimeoutSec)
	}
	if !c.Pipeline.Engines.Tesseract.Enabled && !c.Pipeline.Engines.Handwriting.Enabled {
		return fmt.Errorf("no engines enabled")
	}
	if c.Pipeline.Engines.Handwriting.Enabled && c.Pipeline.Engines.Handwriting.Endpoint == "" {
		return fmt.Errorf("engines.handwriting.endpoint is required when the handwriting engine is enabled")
	}

	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output.format %q (text, json)", c.Output.Format)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	return nil
}
