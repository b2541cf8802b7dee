package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when no explicit path is given.
const DefaultPath = ".mdlinkcheck.yaml"

// Parser backend names.
const (
	BackendAuto     = "auto"
	BackendPandoc   = "pandoc"
	BackendGoldmark = "goldmark"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	ExcludeFolders   []string     `yaml:"exclude_folders"`
	Extensions       []string     `yaml:"extensions"`
	Workers          int          `yaml:"workers"`
	HeadingAnchors   bool         `yaml:"heading_anchors"`
	ExternalPrefixes []string     `yaml:"external_prefixes"`
	RespectGitignore bool         `yaml:"respect_gitignore"`
	Parser           ParserConfig `yaml:"parser"`
	Output           OutputConfig `yaml:"output"`
	MetricsFile      string       `yaml:"metrics_file,omitempty"`
	HistoryDB        string       `yaml:"history_db,omitempty"`
	NATS             NATSConfig   `yaml:"nats"`
	Watch            WatchConfig  `yaml:"watch"`
}

// ParserConfig selects and tunes the Markdown parser backend.
type ParserConfig struct {
	Backend    string `yaml:"backend"`     // auto, pandoc or goldmark
	PandocPath string `yaml:"pandoc_path"` // executable name or path
	Format     string `yaml:"format"`      // pandoc input format
	Timeout    string `yaml:"timeout"`     // per-document process timeout
}

// OutputConfig controls how findings are reported.
type OutputConfig struct {
	Format string `yaml:"format"`
	Quiet  bool   `yaml:"quiet"` // suppress per-file progress lines
}

// NATSConfig enables publishing findings as events.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
	Interval string `yaml:"interval,omitempty"` // periodic full re-check, off when empty
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from path, applies .env and environment overrides, fills
// defaults and validates the result. A missing file at DefaultPath is not an error.
func Load(path string) (*Config, error) {
	loadEnvFile()

	cfg := &Config{}
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	switch {
	case err == nil:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
				Fatal().
				WithContext("path", path).
				Build()
		}
	case os.IsNotExist(err) && (path == "" || path == DefaultPath):
		// optional
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}

// ParserTimeout returns the per-document parser timeout.
func (c *Config) ParserTimeout() time.Duration {
	d, err := time.ParseDuration(c.Parser.Timeout)
	if err != nil || d <= 0 {
		return DefaultParserTimeout
	}
	return d
}

// WatchDebounce returns the watch mode debounce interval.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return DefaultWatchDebounce
	}
	return d
}

// WatchInterval returns the periodic re-check interval, or 0 when disabled.
func (c *Config) WatchInterval() time.Duration {
	d, err := time.ParseDuration(c.Watch.Interval)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// String renders the effective configuration as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return string(out)
}
