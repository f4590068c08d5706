// Package config loads toolforge configuration from YAML with sensible
// defaults and environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all toolforge configuration.
type Config struct {
	// Specs holds the watched directories.
	Specs SpecsConfig `yaml:"specs"`

	// Generation configures the regeneration pipeline.
	Generation GenerationConfig `yaml:"generation"`

	// Sandbox configures artifact execution.
	Sandbox SandboxConfig `yaml:"sandbox"`

	// Store configures optional persistence.
	Store StoreConfig `yaml:"store"`

	// LLM configures the text-generation backend.
	LLM LLMConfig `yaml:"llm"`

	// Logging configures the zap logger.
	Logging LoggingConfig `yaml:"logging"`
}

// SpecsConfig names the directories the watcher operates on.
type SpecsConfig struct {
	Dir      string `yaml:"dir"`
	ToolsDir string `yaml:"tools_dir"`
}

// GenerationConfig tunes the regeneration state machine.
type GenerationConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// SandboxConfig tunes artifact execution.
type SandboxConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LLMConfig configures the text-generation backend.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Specs: SpecsConfig{
			Dir:      "specs",
			ToolsDir: "tools",
		},
		Generation: GenerationConfig{
			DebounceMs: 500,
		},
		Sandbox: SandboxConfig{
			TimeoutSeconds: 5,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "toolforge.db",
		},
		LLM: LLMConfig{
			Provider:  "gemini",
			Model:     "gemini-2.0-flash",
			MaxTokens: 4096,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path, overlays it on the defaults, and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets from the environment. The key never belongs in
// a config file checked into a repository.
func (c *Config) applyEnv() {
	if key := os.Getenv("TOOLFORGE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
}

func (c *Config) validate() error {
	if c.Specs.Dir == "" {
		return fmt.Errorf("specs.dir must not be empty")
	}
	if c.Specs.ToolsDir == "" {
		return fmt.Errorf("specs.tools_dir must not be empty")
	}
	if c.Generation.DebounceMs < 0 {
		return fmt.Errorf("generation.debounce_ms must not be negative")
	}
	if c.Sandbox.TimeoutSeconds < 0 {
		return fmt.Errorf("sandbox.timeout_seconds must not be negative")
	}
	return nil
}

// Debounce returns the generation debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Generation.DebounceMs) * time.Millisecond
}

// SandboxTimeout returns the sandbox budget as a duration.
func (c *Config) SandboxTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSeconds) * time.Second
}
