package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CacheConfig represents compile cache configuration
type CacheConfig struct {
	// Enabled turns the compile cache and run history on
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the cache database
	DBPath string `yaml:"db_path"`
}

// Config represents itemforge configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// OutputDir is where compiled documents are written
	OutputDir string `yaml:"output_dir"`

	// MaxConcurrency is the maximum number of items compiled at once (0 = one per file)
	MaxConcurrency int `yaml:"max_concurrency"`

	// StrictPlan rejects feedback plans that do not cover every outcome path
	StrictPlan bool `yaml:"strict_plan"`

	// FeedbackOutcome is the outcome variable assigned by response processing
	FeedbackOutcome string `yaml:"feedback_outcome"`

	// Indent is the number of spaces per nesting level in emitted XML
	Indent int `yaml:"indent"`

	// Cache contains compile cache configuration
	Cache CacheConfig `yaml:"cache"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		LogDir:          ".itemforge/logs",
		OutputDir:       "qti",
		MaxConcurrency:  0,
		StrictPlan:      true,
		FeedbackOutcome: "FEEDBACK",
		Indent:          2,
		Cache: CacheConfig{
			Enabled: true,
			DBPath:  ".itemforge/cache.db",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointer fields distinguish "absent" from an explicit zero value
	type yamlCache struct {
		Enabled *bool   `yaml:"enabled"`
		DBPath  *string `yaml:"db_path"`
	}
	type yamlConfig struct {
		LogLevel        *string    `yaml:"log_level"`
		LogDir          *string    `yaml:"log_dir"`
		OutputDir       *string    `yaml:"output_dir"`
		MaxConcurrency  *int       `yaml:"max_concurrency"`
		StrictPlan      *bool      `yaml:"strict_plan"`
		FeedbackOutcome *string    `yaml:"feedback_outcome"`
		Indent          *int       `yaml:"indent"`
		Cache           *yamlCache `yaml:"cache"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != nil {
		cfg.LogLevel = *yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != nil {
		cfg.LogDir = *yamlCfg.LogDir
	}
	if yamlCfg.OutputDir != nil {
		cfg.OutputDir = *yamlCfg.OutputDir
	}
	if yamlCfg.MaxConcurrency != nil {
		cfg.MaxConcurrency = *yamlCfg.MaxConcurrency
	}
	if yamlCfg.StrictPlan != nil {
		cfg.StrictPlan = *yamlCfg.StrictPlan
	}
	if yamlCfg.FeedbackOutcome != nil {
		cfg.FeedbackOutcome = *yamlCfg.FeedbackOutcome
	}
	if yamlCfg.Indent != nil {
		cfg.Indent = *yamlCfg.Indent
	}
	if yamlCfg.Cache != nil {
		if yamlCfg.Cache.Enabled != nil {
			cfg.Cache.Enabled = *yamlCfg.Cache.Enabled
		}
		if yamlCfg.Cache.DBPath != nil {
			cfg.Cache.DBPath = *yamlCfg.Cache.DBPath
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .itemforge/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, HomeDirName, "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(maxConcurrency *int, logDir *string, outputDir *string, strictPlan *bool, cacheEnabled *bool) {
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if outputDir != nil {
		c.OutputDir = *outputDir
	}
	if strictPlan != nil {
		c.StrictPlan = *strictPlan
	}
	if cacheEnabled != nil {
		c.Cache.Enabled = *cacheEnabled
	}
}

// IndentString returns the indent unit for emitted XML
func (c *Config) IndentString() string {
	return strings.Repeat(" ", c.Indent)
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.FeedbackOutcome == "" || strings.ContainsAny(c.FeedbackOutcome, " \t\r\n") {
		return fmt.Errorf("feedback_outcome must be a non-empty identifier, got %q", c.FeedbackOutcome)
	}

	if c.Indent < 1 || c.Indent > 8 {
		return fmt.Errorf("indent must be between 1 and 8, got %d", c.Indent)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	if c.Cache.Enabled && c.Cache.DBPath == "" {
		return fmt.Errorf("cache.db_path cannot be empty when the cache is enabled")
	}

	return nil
}
