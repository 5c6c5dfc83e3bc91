// Package config handles loading and merging semdiff configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the optional per-repository config file, read from the
	// repository root.
	FileName = ".semdiff.yml"

	// DefaultModel is the Claude model used for analyses.
	DefaultModel = "claude-sonnet-4-5-20250929"

	// DefaultReportsDir is where saved reports land, relative to the
	// repository root.
	DefaultReportsDir = "semdiff-reports"

	// EnvAPIKey and EnvModel are the environment variables consulted when
	// the config file does not provide a value.
	EnvAPIKey = "ANTHROPIC_API_KEY"
	EnvModel  = "SEMDIFF_MODEL"
)

// ParseError indicates a config file exists but contains invalid content.
// This is distinct from "file not found", which silently uses defaults: a
// present but broken config is a user error that must be surfaced.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid config at %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Config carries every tunable the analyzer consumes. All values have sane
// defaults; only the API key is mandatory.
type Config struct {
	// APIKey is the Anthropic API credential. Environment only, never the
	// config file.
	APIKey string
	// Model is the model identifier. Precedence: code-level override
	// (CLI flag) > SEMDIFF_MODEL > config file > default.
	Model string
	// MaxRetries bounds attempts per model call.
	MaxRetries int
	// BaseDelay seeds the exponential retry backoff.
	BaseDelay time.Duration
	// MaxTotalWait caps cumulative retry sleep per call.
	MaxTotalWait time.Duration
	// MaxDiffChars is the prompt's diff-section character budget.
	MaxDiffChars int
	// ReportsDir is where --save writes markdown reports.
	ReportsDir string
}

// fileConfig is the raw yaml shape; durations are Go duration strings like
// "1s" or "500ms".
type fileConfig struct {
	Model        string `yaml:"model"`
	MaxRetries   int    `yaml:"max_retries"`
	BaseDelay    string `yaml:"base_delay"`
	MaxTotalWait string `yaml:"max_total_wait"`
	MaxDiffChars int    `yaml:"max_diff_chars"`
	ReportsDir   string `yaml:"reports_dir"`
}

// Default returns the default configuration with environment values applied.
func Default() *Config {
	cfg := baseConfig()
	cfg.applyEnv()
	return cfg
}

func baseConfig() *Config {
	return &Config{
		Model:        DefaultModel,
		MaxRetries:   3,
		BaseDelay:    1 * time.Second,
		MaxTotalWait: 30 * time.Second,
		MaxDiffChars: 15000,
		ReportsDir:   DefaultReportsDir,
	}
}

func (c *Config) applyEnv() {
	c.APIKey = os.Getenv(EnvAPIKey)
	if model := os.Getenv(EnvModel); model != "" {
		c.Model = model
	}
}

// Load reads the config file from the repository root if present, then layers
// environment variables on top. A missing file yields defaults; an unreadable
// or invalid file yields a ParseError.
func Load(repoRoot string) (*Config, error) {
	path := filepath.Join(repoRoot, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse parses config file content, filling unset fields with defaults.
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	cfg := baseConfig()

	if raw.Model != "" {
		cfg.Model = raw.Model
	}
	if raw.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must not be negative, got %d", raw.MaxRetries)
	}
	if raw.MaxRetries > 0 {
		cfg.MaxRetries = raw.MaxRetries
	}
	if raw.BaseDelay != "" {
		d, err := time.ParseDuration(raw.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid base_delay: %w", err)
		}
		cfg.BaseDelay = d
	}
	if raw.MaxTotalWait != "" {
		d, err := time.ParseDuration(raw.MaxTotalWait)
		if err != nil {
			return nil, fmt.Errorf("invalid max_total_wait: %w", err)
		}
		cfg.MaxTotalWait = d
	}
	if raw.MaxDiffChars < 0 {
		return nil, fmt.Errorf("max_diff_chars must not be negative, got %d", raw.MaxDiffChars)
	}
	if raw.MaxDiffChars > 0 {
		cfg.MaxDiffChars = raw.MaxDiffChars
	}
	if raw.ReportsDir != "" {
		cfg.ReportsDir = raw.ReportsDir
	}

	return cfg, nil
}
