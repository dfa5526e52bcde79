package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "idscan"

	// EnvPrefix is the prefix for environment variables, e.g. IDSCAN_LOG_LEVEL.
	EnvPrefix = "IDSCAN"
)

// Loader loads configuration from files, environment variables and bound
// flags, in that precedence order (lowest to highest: defaults, file, env,
// flags).
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra flag
// bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader on a private viper instance, for tests and
// embedding.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load resolves the configuration from the standard search paths. A missing
// config file is not an error; defaults and environment variables apply.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile resolves the configuration from a specific file. An empty
// path falls back to the standard search.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "idscan"))
	}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		l.v.AddConfigPath(filepath.Join(configDir, "idscan"))
	}
	l.v.AddConfigPath("/etc/idscan")
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("pipeline.quality_threshold", defaults.Pipeline.QualityThreshold)
	l.v.SetDefault("pipeline.quality_gate", defaults.Pipeline.QualityGate)
	l.v.SetDefault("pipeline.max_workers", defaults.Pipeline.MaxWorkers)
	l.v.SetDefault("pipeline.engine_timeout_sec", defaults.Pipeline.EngineTimeoutSec)
	l.v.SetDefault("pipeline.max_image_dim", defaults.Pipeline.MaxImageDim)

	l.v.SetDefault("pipeline.engines.tesseract.enabled", defaults.Pipeline.Engines.Tesseract.Enabled)
	l.v.SetDefault("pipeline.engines.tesseract.languages", defaults.Pipeline.Engines.Tesseract.Languages)
	l.v.SetDefault("pipeline.engines.handwriting.enabled", defaults.Pipeline.Engines.Handwriting.Enabled)
	l.v.SetDefault("pipeline.engines.handwriting.endpoint", defaults.Pipeline.Engines.Handwriting.Endpoint)
	l.v.SetDefault("pipeline.engines.handwriting.timeout_sec", defaults.Pipeline.Engines.Handwriting.TimeoutSec)

	l.v.SetDefault("output.format", defaults.Output.Format)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout_sec", defaults.Server.ShutdownTimeoutSec)
	l.v.SetDefault("server.rate_limit_per_min", defaults.Server.RateLimitPerMin)
}

// WriteDefaultConfigFile writes the default configuration to a file, for
// bootstrapping deployments.
func WriteDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	l := NewLoaderWith(viper.New())
	l.setDefaults()
	return l.v.WriteConfigAs(filename)
}
