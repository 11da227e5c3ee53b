// Package config provides configuration loading and management for yagnidrift.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete yagnidrift configuration
type Config struct {
	Workgraph WorkgraphConfig `yaml:"workgraph"`
	Git       GitConfig       `yaml:"git"`
	State     StateConfig     `yaml:"state"`
	Watch     WatchConfig     `yaml:"watch"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// WorkgraphConfig configures access to task records
type WorkgraphConfig struct {
	// Dir is the project or .workgraph directory (empty = search from cwd)
	Dir string `yaml:"dir"`
	// Binary is the wg executable (default: wg)
	Binary string `yaml:"binary"`
}

// GitConfig configures the change enumerator
type GitConfig struct {
	// Binary is the git executable (default: git)
	Binary string `yaml:"binary"`
}

// StateConfig configures the last-report snapshot
type StateConfig struct {
	// Dir is the state directory inside the workgraph (default: .yagnidrift)
	Dir string `yaml:"dir"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce is how long to wait after the last change before re-checking
	Debounce time.Duration `yaml:"debounce"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	// Textfile is written after every check when set
	Textfile string `yaml:"textfile"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workgraph: WorkgraphConfig{
			Dir:    "", // Search from cwd
			Binary: "wg",
		},
		Git: GitConfig{
			Binary: "git",
		},
		State: StateConfig{
			Dir: ".yagnidrift",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Workgraph.Binary == "" {
		return fmt.Errorf("workgraph.binary is required")
	}
	if c.Git.Binary == "" {
		return fmt.Errorf("git.binary is required")
	}
	if c.State.Dir == "" {
		return fmt.Errorf("state.dir is required")
	}
	if filepath.IsAbs(c.State.Dir) || strings.Contains(c.State.Dir, "..") {
		return fmt.Errorf("state.dir must be a relative path inside the workgraph")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Workgraph
	if other.Workgraph.Dir != "" {
		c.Workgraph.Dir = other.Workgraph.Dir
	}
	if other.Workgraph.Binary != "" {
		c.Workgraph.Binary = other.Workgraph.Binary
	}

	// Git
	if other.Git.Binary != "" {
		c.Git.Binary = other.Git.Binary
	}

	// State
	if other.State.Dir != "" {
		c.State.Dir = other.State.Dir
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// Metrics
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
