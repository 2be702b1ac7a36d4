// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aplane-algo/jsbridge/internal/bridge"
	"github.com/aplane-algo/jsbridge/internal/scripting"
)

// Config holds jsbridge configuration settings
type Config struct {
	Timeout        time.Duration `yaml:"timeout" description:"Interrupt scripts running longer than this (0 = no limit)" default:"0s"`
	MaxDepth       int           `yaml:"max_depth" description:"Deepest container nesting converted before truncation" default:"256"`
	MaxNodes       int           `yaml:"max_nodes" description:"Maximum values materialized per conversion" default:"1048576"`
	Strict         bool          `yaml:"strict" description:"Fail the call instead of degrading unreadable values to null" default:"false"`
	DefaultBinding string        `yaml:"default_binding" description:"Binding read when none is given" default:"result"`
	MaxCallStack   int           `yaml:"max_call_stack" description:"Maximum JavaScript call depth" default:"10000"`

	LogLevel  string `yaml:"log_level" description:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `yaml:"log_format" description:"Log format on stderr (text, json)" default:"text"`

	MaxConcurrent int           `yaml:"max_concurrent" description:"JSON-RPC requests evaluated in parallel" default:"8"`
	HistoryFile   string        `yaml:"history_file" description:"REPL history file (relative to data dir)" default:".jsbridge_history"`
	Color         string        `yaml:"color" description:"Colored output (auto, always, never)" default:"auto"`
	WatchDebounce time.Duration `yaml:"watch_debounce" description:"Quiet period before re-evaluating a watched script" default:"500ms"`
}

// DefaultConfig returns the default configuration for runtime use.
func DefaultConfig() Config {
	return Config{
		MaxDepth:       bridge.DefaultMaxDepth,
		MaxNodes:       bridge.DefaultMaxNodes,
		DefaultBinding: "result",
		MaxCallStack:   scripting.DefaultMaxCallStackSize,
		LogLevel:       "info",
		LogFormat:      "text",
		MaxConcurrent:  8,
		HistoryFile:    ".jsbridge_history",
		Color:          "auto",
		WatchDebounce:  500 * time.Millisecond,
	}
}

// DataDirEnv overrides the default data directory.
const DataDirEnv = "JSBRIDGE_DATA"

// GetDataDir returns the jsbridge data directory.
// Resolution order: -d flag > JSBRIDGE_DATA env var > ~/.jsbridge
func GetDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envDir := os.Getenv(DataDirEnv); envDir != "" {
		return envDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "" // Can't determine default
	}
	return filepath.Join(home, ".jsbridge")
}

// GetConfigPath returns the path to the config file in the data directory.
// Returns empty string if dataDir is empty.
func GetConfigPath(dataDir string) string {
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, "config.yaml")
}

// ResolvePath resolves a relative path against baseDir.
// Absolute paths and empty inputs are returned unchanged.
func ResolvePath(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// LoadConfig loads configuration from config.yaml in the data directory.
// If dataDir is empty or the file doesn't exist, returns default config.
// A relative history_file is resolved against the data directory.
func LoadConfig(dataDir string) (Config, error) {
	config, err := LoadConfigFromPath(GetConfigPath(dataDir))
	if err != nil {
		return config, err
	}
	config.HistoryFile = ResolvePath(config.HistoryFile, dataDir)
	return config, nil
}

// LoadConfigFromPath loads configuration from the specified path.
// If path is empty or the file doesn't exist, returns default config.
func LoadConfigFromPath(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay config file values
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MaxNodes < 1 {
		return fmt.Errorf("max_nodes must be at least 1, got %d", c.MaxNodes)
	}
	if c.MaxCallStack < 1 {
		return fmt.Errorf("max_call_stack must be at least 1, got %d", c.MaxCallStack)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", c.MaxConcurrent)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative, got %s", c.WatchDebounce)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format '%s' in config (must be text or json)", c.LogFormat)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color '%s' in config (must be auto, always or never)", c.Color)
	}
	return nil
}

// NewEngine returns a goja engine with the configured call depth limit
// whose script console output goes to the global Logger.
func (c Config) NewEngine() *scripting.GojaEngine {
	return scripting.NewGojaEngine(Logger).WithMaxCallStackSize(c.MaxCallStack)
}

// HostOptions returns script host options carrying the configured limits.
func (c Config) HostOptions() scripting.HostOptions {
	return scripting.HostOptions{
		Timeout: c.Timeout,
		Conversion: bridge.Options{
			MaxDepth: c.MaxDepth,
			MaxNodes: c.MaxNodes,
			Strict:   c.Strict,
		},
		Logger: Logger,
	}
}
