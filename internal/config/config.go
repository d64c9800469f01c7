// Package config reads the gbq configuration file and merges it with CLI flags.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/gbq/internal/parallel"
)

// Config represents the gbq configuration file (~/.config/gbq/config.yaml).
// Numeric and boolean fields are pointers so "not set" differs from zero.
type Config struct {
	// Execution
	Backend      string `yaml:"backend"`
	Workers      *int   `yaml:"workers"`
	MinChunk     *int   `yaml:"min_chunk"`
	CheckIndices *bool  `yaml:"check_indices"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Settings are the resolved values a command runs with.
type Settings struct {
	Backend      string
	Workers      int
	MinChunk     int
	CheckIndices bool
	LogLevel     string
	LogFormat    string
}

// Flag names matched against Config fields by Apply.
const (
	FlagBackend      = "backend"
	FlagWorkers      = "workers"
	FlagMinChunk     = "min-chunk"
	FlagCheckIndices = "check-indices"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
)

// DefaultSettings returns the values used when neither flags nor the file set them.
func DefaultSettings() Settings {
	def := parallel.DefaultConfig()
	return Settings{
		Backend:   "cpu",
		Workers:   def.NumWorkers,
		MinChunk:  def.MinChunkSize,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultPath returns the per-user config file location, or "" when the
// config directory cannot be resolved.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gbq", "config.yaml")
}

// Load reads the config file at path. An empty path or a missing file
// yields a zero Config. Malformed YAML is an error.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML config document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parsing config")
	}
	return cfg, nil
}

// Apply copies config file values into s for every field whose flag was
// not explicitly set on the command line.
func (cfg Config) Apply(s *Settings, isSet func(flag string) bool) {
	if cfg.Backend != "" && !isSet(FlagBackend) {
		s.Backend = cfg.Backend
	}
	if cfg.Workers != nil && !isSet(FlagWorkers) {
		s.Workers = *cfg.Workers
	}
	if cfg.MinChunk != nil && !isSet(FlagMinChunk) {
		s.MinChunk = *cfg.MinChunk
	}
	if cfg.CheckIndices != nil && !isSet(FlagCheckIndices) {
		s.CheckIndices = *cfg.CheckIndices
	}
	if cfg.LogLevel != "" && !isSet(FlagLogLevel) {
		s.LogLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !isSet(FlagLogFormat) {
		s.LogFormat = cfg.LogFormat
	}
}

// Parallel returns the host dispatch configuration for s.
// Workers <= 1 runs every workgroup on the calling goroutine.
func (s Settings) Parallel() parallel.Config {
	return parallel.Config{
		Enabled:      s.Workers > 1,
		NumWorkers:   s.Workers,
		MinChunkSize: s.MinChunk,
	}
}
